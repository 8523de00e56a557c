package nav

import (
	"reflect"
	"testing"
)

func TestNavigateDetailPushesHistory(t *testing.T) {
	s := NewStack()
	s.Navigate(Album("a1"))

	if got := s.Current(); got != Album("a1") {
		t.Errorf("Current() = %+v, want album a1", got)
	}
	if got := s.History(); !reflect.DeepEqual(got, []Page{Songs()}) {
		t.Errorf("History() = %+v, want [songs]", got)
	}

	if got := s.Back(); got != Songs() {
		t.Errorf("Back() = %+v, want songs", got)
	}
	if len(s.History()) != 0 {
		t.Errorf("History() = %+v, want empty", s.History())
	}
}

func TestNavigateMainClearsHistory(t *testing.T) {
	sequences := [][]func(*Stack){
		{},
		{func(s *Stack) { s.Navigate(Artist("x")) }},
		{
			func(s *Stack) { s.Navigate(Artist("x")) },
			func(s *Stack) { s.Navigate(Album("y")) },
			func(s *Stack) { s.Navigate(Album("z")) },
		},
		{
			func(s *Stack) { s.Navigate(Albums()) },
			func(s *Stack) { s.Navigate(Album("y")) },
			func(s *Stack) { s.Back() },
			func(s *Stack) { s.Back() },
			func(s *Stack) { s.Navigate(Artist("q")) },
		},
	}

	for i, seq := range sequences {
		s := NewStack()
		for _, step := range seq {
			step(s)
		}
		s.Navigate(Songs())
		if h := s.History(); len(h) != 0 {
			t.Errorf("sequence %d: History() = %+v, want empty", i, h)
		}
		if s.CanGoBack() {
			t.Errorf("sequence %d: CanGoBack() = true", i)
		}
	}
}

func TestBackOnEmptyHistory(t *testing.T) {
	s := NewStack()
	s.Navigate(Settings())

	if got := s.Back(); got != Default() {
		t.Errorf("Back() = %+v, want default", got)
	}
	if got := s.Back(); got != Default() {
		t.Errorf("second Back() = %+v, want default", got)
	}
}

func TestBackWalksDetailChain(t *testing.T) {
	s := NewStack()
	s.Navigate(Artists())
	s.Navigate(Artist("ar1"))
	s.Navigate(Album("al1"))

	want := []Page{Artist("ar1"), Artists(), Songs()}
	for i, w := range want {
		if got := s.Back(); got != w {
			t.Errorf("Back() #%d = %+v, want %+v", i, got, w)
		}
	}
}

func TestSearchIsMainPage(t *testing.T) {
	s := NewStack()
	s.Navigate(Album("a1"))
	s.Navigate(Search("abba", false))

	if h := s.History(); len(h) != 0 {
		t.Errorf("History() = %+v, want empty", h)
	}
	if got := s.Current().Title(); got != "Search: abba" {
		t.Errorf("Title() = %q, want %q", got, "Search: abba")
	}
}

func TestOnChange(t *testing.T) {
	s := NewStack()
	var seen []Kind
	s.OnChange(func(p Page) { seen = append(seen, p.Kind) })

	s.Navigate(Album("a"))
	s.Back()

	want := []Kind{KindAlbum, KindSongs}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("seen = %v, want %v", seen, want)
	}
}
