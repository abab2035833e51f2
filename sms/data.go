package sms

// OutgoingMessage describes a message to be encoded into SMS-SUBMIT frames.
type OutgoingMessage struct {
	Number         string // destination number, separators and leading '+' allowed
	Text           string // message text in UTF-8
	Flash          bool   // display immediately, do not store
	DeliveryReport bool   // request a status report
}

// Segment is one slice of the message text carried by a single frame.
type Segment struct {
	Index int    // 1-based position in the plan
	Text  string // substring of the original text
}

// SegmentPlan describes how a message is split into frames.
type SegmentPlan struct {
	Alphabet   Alphabet  // alphabet shared by all segments
	Count      int       // number of segments, at least 1
	PerSegment int       // character budget of each segment
	Ref        byte      // concatenation reference, the same for every segment
	Segments   []Segment // segments in index order
}

// Segmented reports whether the frames of the plan carry a concatenation header.
func (p SegmentPlan) Segmented() bool {
	return p.Count > 1
}
