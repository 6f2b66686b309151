package creds

import "fmt"

// Permutator lexicographically enumerates every string of length in
// [minSize, maxSize] over charset, shortest first, in charset order.
type Permutator struct {
	charset      []rune
	charsetIndex map[rune]int
	minSize      int
	maxSize      int

	permutation   []rune
	currentIndex  int
	generated     uint64
	totalToGen    uint64
	started       bool
}

// NewPermutator builds a Permutator over charset for lengths [minSize, maxSize].
// charset must be non-empty and minSize <= maxSize.
func NewPermutator(charset []rune, minSize, maxSize int) *Permutator {
	if len(charset) == 0 {
		panic("creds: permutator charset must be non-empty")
	}
	if minSize < 1 || maxSize < minSize {
		panic(fmt.Sprintf("creds: invalid permutator length range [%d..%d]", minSize, maxSize))
	}

	index := make(map[rune]int, len(charset))
	for i, c := range charset {
		index[c] = i
	}

	return &Permutator{
		charset:      charset,
		charsetIndex: index,
		minSize:      minSize,
		maxSize:      maxSize,
		permutation:  repeatRune(charset[0], minSize),
		currentIndex: minSize - 1,
		totalToGen:   permutatorSpaceSize(uint64(len(charset)), minSize, maxSize),
	}
}

func repeatRune(r rune, n int) []rune {
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return out
}

func permutatorSpaceSize(charsetLen uint64, minSize, maxSize int) uint64 {
	var total uint64
	for i := minSize; i <= maxSize; i++ {
		total += ipow(charsetLen, uint64(i))
	}
	return total
}

func ipow(base, exp uint64) uint64 {
	result := uint64(1)
	for i := uint64(0); i < exp; i++ {
		result *= base
	}
	return result
}

func (p *Permutator) SearchSpaceSize() uint64 { return p.totalToGen }

// Next returns the next permutation in lexicographic order, or ok=false once
// every string up to maxSize has been produced.
func (p *Permutator) Next() (string, bool) {
	if len(p.permutation) > p.maxSize {
		return "", false
	}

	if !p.started {
		p.started = true
		p.generated = 1
		return string(p.permutation), true
	}

	if p.generated == p.totalToGen {
		return "", false
	}

	charsetLast := p.charset[len(p.charset)-1]
	charsetFirst := p.charset[0]

	allSaturated := p.currentLenIsFull() && p.allEqual(charsetLast)
	if allSaturated {
		p.currentIndex++
		newLen := len(p.permutation) + 1
		p.permutation = repeatRune(charsetFirst, newLen)
	} else {
		current := p.permutation[p.currentIndex]
		if current == charsetLast {
			atPrev := p.rightmostNot(charsetLast)
			if atPrev < 0 {
				panic(fmt.Sprintf("creds: permutator invariant violated in %q", string(p.permutation)))
			}
			prevChar := p.permutation[atPrev]
			prevIdx := p.charsetIndex[prevChar]
			nextPrev := p.charset[prevIdx+1]

			p.permutation[p.currentIndex] = charsetFirst
			p.permutation[atPrev] = nextPrev

			for i := range p.permutation {
				if p.permutation[i] == charsetLast && i > atPrev {
					p.permutation[i] = charsetFirst
				}
			}
		} else {
			at := p.charsetIndex[current]
			p.permutation[p.currentIndex] = p.charset[at+1]
		}
	}

	p.generated++
	return string(p.permutation), true
}

func (p *Permutator) currentLenIsFull() bool {
	return len(p.permutation) == p.currentIndex+1
}

func (p *Permutator) allEqual(r rune) bool {
	for _, c := range p.permutation {
		if c != r {
			return false
		}
	}
	return true
}

func (p *Permutator) rightmostNot(r rune) int {
	for i := len(p.permutation) - 1; i >= 0; i-- {
		if p.permutation[i] != r {
			return i
		}
	}
	return -1
}

// Clone returns an independent copy reset to the beginning.
func (p *Permutator) Clone() Iterator {
	return NewPermutator(append([]rune(nil), p.charset...), p.minSize, p.maxSize)
}
