package nav

import "sync"

// Stack is the current page plus the pages visited before it.
type Stack struct {
	mu       sync.Mutex
	current  Page
	history  []Page
	onChange func(Page)
}

// NewStack creates a stack showing the default page.
func NewStack() *Stack {
	return &Stack{current: Default()}
}

// OnChange registers fn to be called with the new current page after every
// navigation. fn runs outside the stack's lock.
func (s *Stack) OnChange(fn func(Page)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Navigate shows page. Main pages clear history; other pages push the
// current page first.
func (s *Stack) Navigate(page Page) {
	s.mu.Lock()
	if page.Kind.IsMain() {
		s.history = nil
	} else {
		s.history = append(s.history, s.current)
	}
	s.current = page
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(page)
	}
}

// Back returns to the previous page, or the default page when there is none.
func (s *Stack) Back() Page {
	s.mu.Lock()
	if n := len(s.history); n > 0 {
		s.current = s.history[n-1]
		s.history = s.history[:n-1]
	} else {
		s.current = Default()
	}
	page := s.current
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(page)
	}
	return page
}

// Current returns the page being shown.
func (s *Stack) Current() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// History returns a copy of the visited pages, most recent last.
func (s *Stack) History() []Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Page(nil), s.history...)
}

// CanGoBack returns true if history is not empty.
func (s *Stack) CanGoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history) > 0
}
