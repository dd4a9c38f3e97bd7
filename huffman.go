package jpegli

import "fmt"

const (
	maxHuffmanBitLength = 16
	// The alphabet has 256 coding symbols plus one synthetic symbol that
	// reserves the all-ones code of the longest length (T.81 K.2 keeps it
	// free so a padded 1-bit tail never decodes as a symbol).
	huffmanAlphabetSize = 257
	reservedSymbol      = 256
)

// histogram counts coding symbol occurrences for one Huffman table.
type histogram struct {
	counts [huffmanAlphabetSize]uint32
}

func (h *histogram) add(symbol int) {
	h.counts[symbol]++
}

func (h *histogram) addHistogram(other *histogram) {
	for i, c := range other.counts {
		h.counts[i] += c
	}
}

func (h *histogram) empty() bool {
	for _, c := range h.counts[:reservedSymbol] {
		if c > 0 {
			return false
		}
	}
	return true
}

// huffmanSpec is the DHT representation of one table: the number of codes
// of each length 1..16 and the symbols sorted by (length, value).
type huffmanSpec struct {
	bitCounts [maxHuffmanBitLength + 1]byte
	values    []byte
}

// huffmanCodeTable is the compiled encoder form.
type huffmanCodeTable struct {
	lengths [256]uint8
	codes   [256]uint16
}

// buildHuffmanSpec computes length-limited optimal code lengths for the
// histogram. This is the two-least-frequent merge of T.81 K.2 with the
// libjpeg depth-adjustment pass that folds lengths beyond 16 back into
// the tree, and with the reserved symbol given a nonzero count so the
// all-ones code is never assigned to a real symbol.
func buildHuffmanSpec(h *histogram) (huffmanSpec, error) {
	var spec huffmanSpec

	var freq [huffmanAlphabetSize]int64
	for i, c := range h.counts[:reservedSymbol] {
		freq[i] = int64(c)
	}
	freq[reservedSymbol] = 1

	var codesize [huffmanAlphabetSize]int
	var others [huffmanAlphabetSize]int
	for i := range others {
		others[i] = -1
	}

	for {
		c1, c2 := -1, -1
		v := int64(1) << 62
		for i, f := range freq {
			if f > 0 && f <= v {
				v = f
				c1 = i
			}
		}
		v = int64(1) << 62
		for i, f := range freq {
			if f > 0 && f <= v && i != c1 {
				v = f
				c2 = i
			}
		}
		if c2 < 0 {
			break
		}
		freq[c1] += freq[c2]
		freq[c2] = 0
		codesize[c1]++
		for others[c1] >= 0 {
			c1 = others[c1]
			codesize[c1]++
		}
		others[c1] = c2
		codesize[c2]++
		for others[c2] >= 0 {
			c2 = others[c2]
			codesize[c2]++
		}
	}

	var bits [2*maxHuffmanBitLength + 1]int
	for _, size := range codesize {
		if size > 0 {
			if size > 2*maxHuffmanBitLength {
				return spec, fmt.Errorf("%w: Huffman code length %d", ErrInternal, size)
			}
			bits[size]++
		}
	}

	// Fold lengths beyond the limit back under it by pairing up overlong
	// codes with a shorter prefix (libjpeg jpeg_gen_optimal_table).
	for i := 2 * maxHuffmanBitLength; i > maxHuffmanBitLength; i-- {
		for bits[i] > 0 {
			j := i - 2
			for bits[j] == 0 {
				j--
			}
			bits[i] -= 2
			bits[i-1]++
			bits[j+1] += 2
			bits[j]--
		}
	}

	// Drop the reserved symbol: it occupies one code at the longest used
	// length, the all-ones code by canonical ordering.
	for i := maxHuffmanBitLength; i > 0; i-- {
		if bits[i] > 0 {
			bits[i]--
			break
		}
	}

	for i := 1; i <= maxHuffmanBitLength; i++ {
		spec.bitCounts[i] = byte(bits[i])
	}
	// Symbols sorted by increasing code length, increasing value within a
	// length; the reserved symbol is omitted.
	for size := 1; size <= 2*maxHuffmanBitLength; size++ {
		for sym := 0; sym < reservedSymbol; sym++ {
			if codesize[sym] == size {
				spec.values = append(spec.values, byte(sym))
			}
		}
	}
	return spec, nil
}

// compile assigns canonical codes: increment within a length, shift left
// when the length grows.
func (s *huffmanSpec) compile() (*huffmanCodeTable, error) {
	t := &huffmanCodeTable{}
	code := uint32(0)
	k := 0
	for length := 1; length <= maxHuffmanBitLength; length++ {
		for i := 0; i < int(s.bitCounts[length]); i++ {
			if code >= 1<<length {
				return nil, fmt.Errorf("%w: Huffman code overflow at length %d", ErrInternal, length)
			}
			sym := s.values[k]
			t.codes[sym] = uint16(code)
			t.lengths[sym] = uint8(length)
			code++
			k++
		}
		code <<= 1
	}
	return t, nil
}

// numSymbols reports the count of coded symbols in the table.
func (s *huffmanSpec) numSymbols() int {
	return len(s.values)
}

// headerCost estimates the DHT bits needed to transmit a table built
// from the histogram.
func headerCost(h *histogram) int64 {
	bits := int64(17 * 8)
	for _, c := range h.counts[:reservedSymbol] {
		if c > 0 {
			bits += 8
		}
	}
	return bits
}

// entropyCost estimates the entropy-coded bits for the histogram under
// the given table. Magnitude bits ride along with the symbol's low
// nibble for AC/DC category symbols.
func entropyCost(h *histogram, t *huffmanCodeTable) int64 {
	var bits int64
	for sym, c := range h.counts[:reservedSymbol] {
		if c == 0 {
			continue
		}
		bits += int64(c) * int64(uint32(t.lengths[sym])+uint32(sym&0x0F))
	}
	return bits
}

// clusterHistograms greedily merges histograms when sharing one table
// costs fewer bits than transmitting two. Returns the per-input table
// assignment and the merged histograms.
func clusterHistograms(histos []*histogram) ([]int, []*histogram, error) {
	assignment := make([]int, len(histos))
	var clusters []*histogram
	var costs []int64

	cost := func(h *histogram) (int64, error) {
		spec, err := buildHuffmanSpec(h)
		if err != nil {
			return 0, err
		}
		table, err := spec.compile()
		if err != nil {
			return 0, err
		}
		return headerCost(h) + entropyCost(h, table), nil
	}

	for i, h := range histos {
		merged := false
		for ci, cl := range clusters {
			combined := &histogram{}
			combined.addHistogram(cl)
			combined.addHistogram(h)
			combinedCost, err := cost(combined)
			if err != nil {
				return nil, nil, err
			}
			soloCost, err := cost(h)
			if err != nil {
				return nil, nil, err
			}
			if combinedCost < costs[ci]+soloCost {
				clusters[ci] = combined
				costs[ci] = combinedCost
				assignment[i] = ci
				merged = true
				break
			}
		}
		if !merged {
			c, err := cost(h)
			if err != nil {
				return nil, nil, err
			}
			assignment[i] = len(clusters)
			clusters = append(clusters, h)
			costs = append(costs, c)
		}
	}
	return assignment, clusters, nil
}
