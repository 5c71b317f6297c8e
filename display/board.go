// Package display holds the kiosk's element surface: the fixed set of element IDs the
// clock and weather panel write to, and the patch stream that mirrors those writes
// into the browser.
package display

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Surface is the write surface the renderers depend on. Every method reports
// whether the element exists; writes to unknown elements are ignored.
type Surface interface {
	SetText(id, text string) bool
	Text(id string) (string, bool)
	AddClass(id, class string) bool
	RemoveClass(id, class string) bool
	SetStyle(id, property, value string) bool
}

// PatchKind identifies the kind of mutation a Patch carries
type PatchKind string

const (
	PatchText        PatchKind = "text"
	PatchAddClass    PatchKind = "add-class"
	PatchRemoveClass PatchKind = "remove-class"
	PatchStyle       PatchKind = "style"
)

// Patch is a single element mutation, in the order it was applied
type Patch struct {
	Seq   uint64    `json:"seq"`
	ID    string    `json:"id"`
	Kind  PatchKind `json:"kind"`
	Name  string    `json:"name,omitempty"`
	Value string    `json:"value,omitempty"`
}

// Element is the observable state of one element
type Element struct {
	ID      string            `json:"id"`
	Text    string            `json:"text"`
	Classes []string          `json:"classes,omitempty"`
	Style   map[string]string `json:"style,omitempty"`
}

type element struct {
	text    string
	classes map[string]struct{}
	style   map[string]string
}

// Board is an in-memory Surface. All writes are serialized, so callers on different
// goroutines (tickers, flip timers, the weather refresher) need no extra locking.
type Board struct {
	mutex       sync.RWMutex
	elements    map[string]*element
	seq         uint64
	subscribers map[string]chan Patch
	bufferSize  int
}

// NewBoard creates a board with the given element IDs
func NewBoard(ids ...string) *Board {
	b := &Board{
		elements:    make(map[string]*element, len(ids)),
		subscribers: make(map[string]chan Patch),
		bufferSize:  256,
	}
	for _, id := range ids {
		b.elements[id] = &element{
			classes: make(map[string]struct{}),
			style:   make(map[string]string),
		}
	}
	return b
}

// SetText replaces the text content of an element
func (b *Board) SetText(id, text string) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	el, ok := b.elements[id]
	if !ok {
		return false
	}
	if el.text == text {
		return true
	}
	el.text = text
	b.publish(Patch{ID: id, Kind: PatchText, Value: text})
	return true
}

// Text returns the text content of an element
func (b *Board) Text(id string) (string, bool) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	el, ok := b.elements[id]
	if !ok {
		return "", false
	}
	return el.text, true
}

// HasClass reports whether the element carries the class
func (b *Board) HasClass(id, class string) bool {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	el, ok := b.elements[id]
	if !ok {
		return false
	}
	_, has := el.classes[class]
	return has
}

// Style returns a single inline style property of an element
func (b *Board) Style(id, property string) (string, bool) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	el, ok := b.elements[id]
	if !ok {
		return "", false
	}
	v, has := el.style[property]
	return v, has
}

// AddClass adds a class to an element
func (b *Board) AddClass(id, class string) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	el, ok := b.elements[id]
	if !ok {
		return false
	}
	if _, has := el.classes[class]; has {
		return true
	}
	el.classes[class] = struct{}{}
	b.publish(Patch{ID: id, Kind: PatchAddClass, Name: class})
	return true
}

// RemoveClass removes a class from an element
func (b *Board) RemoveClass(id, class string) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	el, ok := b.elements[id]
	if !ok {
		return false
	}
	if _, has := el.classes[class]; !has {
		return true
	}
	delete(el.classes, class)
	b.publish(Patch{ID: id, Kind: PatchRemoveClass, Name: class})
	return true
}

// SetStyle sets one inline style property of an element
func (b *Board) SetStyle(id, property, value string) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	el, ok := b.elements[id]
	if !ok {
		return false
	}
	if el.style[property] == value {
		return true
	}
	el.style[property] = value
	b.publish(Patch{ID: id, Kind: PatchStyle, Name: property, Value: value})
	return true
}

// Snapshot returns every element sorted by ID together with the sequence number of
// the last applied patch. Patches received after subscribing with a higher Seq apply
// on top of it.
func (b *Board) Snapshot() ([]Element, uint64) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	out := make([]Element, 0, len(b.elements))
	for id, el := range b.elements {
		e := Element{ID: id, Text: el.text}
		for c := range el.classes {
			e.Classes = append(e.Classes, c)
		}
		sort.Strings(e.Classes)
		if len(el.style) > 0 {
			e.Style = make(map[string]string, len(el.style))
			for k, v := range el.style {
				e.Style[k] = v
			}
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, b.seq
}

// Subscribe registers a patch listener. The returned cancel function unregisters it
// and closes the channel. A subscriber that falls behind loses patches rather than
// blocking writers; it should resync from Snapshot.
func (b *Board) Subscribe() (string, <-chan Patch, func()) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	id := uuid.New().String()
	ch := make(chan Patch, b.bufferSize)
	b.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mutex.Lock()
			defer b.mutex.Unlock()
			delete(b.subscribers, id)
			close(ch)
		})
	}
	return id, ch, cancel
}

// SubscriberCount returns the number of active patch listeners
func (b *Board) SubscriberCount() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.subscribers)
}

// publish must be called with the write lock held
func (b *Board) publish(p Patch) {
	b.seq++
	p.Seq = b.seq
	for _, ch := range b.subscribers {
		select {
		case ch <- p:
		default:
		}
	}
}

// Ensure Board implements Surface
var _ Surface = (*Board)(nil)
