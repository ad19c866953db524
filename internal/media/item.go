package media

import (
	"fmt"

	"github.com/google/uuid"
)

// Phase names the lifecycle position of a media item
type Phase string

// Possible item phases, in pipeline order. Dropped is terminal and can be
// reached from any non-terminal phase.
const (
	PhaseUncompressed Phase = "uncompressed"
	PhaseCompressed   Phase = "compressed"
	PhaseUploading    Phase = "uploading"
	PhaseUploaded     Phase = "uploaded"
	PhaseDropped      Phase = "dropped"
)

// State is the tagged lifecycle state of an item. The set of implementations
// is closed: Uncompressed, Compressed, Uploading, Uploaded and Dropped.
type State interface {
	Phase() Phase
	sealed()
}

// Uncompressed holds the raw payload as submitted.
type Uncompressed struct {
	Raw Raw
}

// Compressed holds the encoded payload alongside the raw one.
type Compressed struct {
	Encoded Encoded
	Raw     Raw
}

// Uploading is a compressed item whose upload is in flight.
type Uploading struct {
	Encoded Encoded
	Raw     Raw
}

// Uploaded is terminal: the payload is stored remotely.
type Uploaded struct {
	Ref     RemoteRef
	Encoded Encoded
	Raw     Raw
}

// Dropped is terminal: a stage failed and the item no longer counts
// toward its task.
type Dropped struct {
	Reason error
	From   Phase
}

func (Uncompressed) Phase() Phase { return PhaseUncompressed }
func (Compressed) Phase() Phase   { return PhaseCompressed }
func (Uploading) Phase() Phase    { return PhaseUploading }
func (Uploaded) Phase() Phase     { return PhaseUploaded }
func (Dropped) Phase() Phase      { return PhaseDropped }

func (Uncompressed) sealed() {}
func (Compressed) sealed()   {}
func (Uploading) sealed()    {}
func (Uploaded) sealed()     {}
func (Dropped) sealed()      {}

// Item is one photo or video tracked through compression and upload.
// The ID is assigned once and survives every transition. An Item is not safe
// for concurrent use; exactly one owner mutates it at a time.
type Item struct {
	ID    uuid.UUID
	state State
}

// NewItem creates an Uncompressed item with a fresh ID. The payload is not
// checked here; see Raw.Validate.
func NewItem(raw Raw) *Item {
	return &Item{
		ID:    uuid.New(),
		state: Uncompressed{Raw: raw},
	}
}

// State returns the current state.
func (i *Item) State() State {
	return i.state
}

// Phase is shorthand for State().Phase().
func (i *Item) Phase() Phase {
	return i.state.Phase()
}

// Settled reports whether the item reached Uploaded or Dropped.
func (i *Item) Settled() bool {
	switch i.state.(type) {
	case Uploaded, Dropped:
		return true
	default:
		return false
	}
}

// MarkCompressed moves Uncompressed to Compressed.
func (i *Item) MarkCompressed(encoded Encoded) error {
	switch s := i.state.(type) {
	case Uncompressed:
		i.state = Compressed{Encoded: encoded, Raw: s.Raw}
		return nil
	case Compressed, Uploading, Uploaded, Dropped:
		return i.invalid(PhaseCompressed)
	default:
		return i.invalid(PhaseCompressed)
	}
}

// MarkUploading moves Compressed to Uploading.
func (i *Item) MarkUploading() error {
	switch s := i.state.(type) {
	case Compressed:
		i.state = Uploading{Encoded: s.Encoded, Raw: s.Raw}
		return nil
	case Uncompressed, Uploading, Uploaded, Dropped:
		return i.invalid(PhaseUploading)
	default:
		return i.invalid(PhaseUploading)
	}
}

// MarkUploaded moves Uploading to Uploaded.
func (i *Item) MarkUploaded(ref RemoteRef) error {
	switch s := i.state.(type) {
	case Uploading:
		i.state = Uploaded{Ref: ref, Encoded: s.Encoded, Raw: s.Raw}
		return nil
	case Uncompressed, Compressed, Uploaded, Dropped:
		return i.invalid(PhaseUploaded)
	default:
		return i.invalid(PhaseUploaded)
	}
}

// Drop moves any non-terminal state to Dropped, discarding the payloads.
func (i *Item) Drop(reason error) error {
	switch s := i.state.(type) {
	case Uncompressed, Compressed, Uploading:
		i.state = Dropped{Reason: reason, From: s.Phase()}
		return nil
	case Uploaded, Dropped:
		return i.invalid(PhaseDropped)
	default:
		return i.invalid(PhaseDropped)
	}
}

func (i *Item) invalid(to Phase) error {
	return fmt.Errorf("%w: item %s from %s to %s", ErrInvalidTransition, i.ID, i.state.Phase(), to)
}
