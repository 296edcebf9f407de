package profile

import "sync/atomic"

// Current lets a bare Profile act as a fixed profile source.
func (p *Profile) Current() *Profile { return p }

// Store holds the profile in effect and swaps it atomically on reload.
// Readers always see a complete snapshot.
type Store struct {
	v atomic.Pointer[Profile]
}

// NewStore starts with p, or the built-in default when p is nil.
func NewStore(p *Profile) *Store {
	if p == nil {
		p = Default()
	}
	s := &Store{}
	s.v.Store(p)
	return s
}

// Current returns the active snapshot.
func (s *Store) Current() *Profile { return s.v.Load() }

// Replace validates cfg and swaps in the resulting profile. The old snapshot
// stays in effect when cfg is invalid.
func (s *Store) Replace(cfg Config) (*Profile, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	s.v.Store(p)
	return p, nil
}

//Personal.AI order the ending
