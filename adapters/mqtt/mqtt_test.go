package mqtt

import (
	"sync"
	"testing"

	"github.com/lvkbot/nlptree/nlp"
)

func TestTreeForCreatesOnePerSession(t *testing.T) {
	var built int
	s := NewService("req", "reply/", func() *nlp.Tree {
		built++
		return nlp.NewTree()
	})

	a := s.treeFor("alice")
	a2 := s.treeFor("alice")
	b := s.treeFor("bob")

	if a != a2 {
		t.Errorf("expected the same tree for the same session")
	}
	if a == b {
		t.Errorf("expected distinct trees for distinct sessions")
	}
	if built != 2 {
		t.Errorf("got %d trees built, want 2", built)
	}
}

func TestTreeForConcurrentSameSession(t *testing.T) {
	var built int
	var mu sync.Mutex
	s := NewService("req", "reply/", func() *nlp.Tree {
		mu.Lock()
		built++
		mu.Unlock()
		return nlp.NewTree()
	})

	var wg sync.WaitGroup
	trees := make([]*nlp.Tree, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			trees[i] = s.treeFor("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(trees); i++ {
		if trees[i] != trees[0] {
			t.Errorf("got a different tree for goroutine %d", i)
		}
	}
}

func TestEndSession(t *testing.T) {
	s := NewService("req", "reply/", func() *nlp.Tree { return nlp.NewTree() })
	first := s.treeFor("alice")
	s.EndSession("alice")
	second := s.treeFor("alice")

	if first == second {
		t.Errorf("expected EndSession to force a fresh tree on next use")
	}
}
