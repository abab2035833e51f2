package sms

import (
	"fmt"
	"math/rand"
)

// maxSegments is the largest count the one-octet total field can carry.
const maxSegments = 0xff

// RefSource supplies concatenation references. Implementations used from
// several goroutines must be safe for concurrent use.
type RefSource interface {
	NextRef() byte
}

// RefFunc adapts a function to RefSource.
type RefFunc func() byte

// NextRef calls f.
func (f RefFunc) NextRef() byte { return f() }

// RandomRef draws references in 1..255 from the process-wide generator.
var RandomRef RefSource = RefFunc(func() byte {
	return byte(rand.Intn(0xff) + 1)
})

// Plan splits text into segments using the default encoder.
func Plan(text string, alphabet Alphabet) (SegmentPlan, error) {
	return defaultEncoder.Plan(text, alphabet)
}

// Plan splits text into the segments that are sent as separate frames. The
// concatenation reference is drawn once and shared by every segment.
func (e *Encoder) Plan(text string, alphabet Alphabet) (SegmentPlan, error) {
	runes := []rune(text)
	count, per := 1, singleLen(alphabet)
	if IsLong(text, alphabet) {
		per = partLen(alphabet)
		count = (len(runes) + per - 1) / per
	}
	if count > maxSegments || (e.MaxParts > 0 && count > e.MaxParts) {
		return SegmentPlan{}, fmt.Errorf("%w: %d", ErrTooManyParts, count)
	}

	plan := SegmentPlan{
		Alphabet:   alphabet,
		Count:      count,
		PerSegment: per,
		Ref:        e.nextRef(),
		Segments:   make([]Segment, 0, count),
	}
	for i := 0; i < count; i++ {
		start, end := i*per, (i+1)*per
		if end > len(runes) {
			end = len(runes)
		}
		plan.Segments = append(plan.Segments, Segment{
			Index: i + 1,
			Text:  string(runes[start:end]),
		})
	}
	return plan, nil
}

// nextRef returns the next reference, zero is replaced by 1.
func (e *Encoder) nextRef() byte {
	refs := e.Refs
	if refs == nil {
		refs = RandomRef
	}
	if ref := refs.NextRef(); ref != 0 {
		return ref
	}
	return 1
}
