package mvvm

import (
	"errors"
	"sync"
	"testing"
)

func TestBuildGraphRejectsSecondBuild(t *testing.T) {
	type billing struct{}

	if _, err := BuildGraph[billing](Computed("Total")); err != nil {
		t.Fatalf("first build: %v", err)
	}
	_, err := BuildGraph[billing](Computed("Total"))
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestGraphForUnbuiltType(t *testing.T) {
	type orphan struct{}

	_, err := GraphFor[orphan]()
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestGraphForReturnsInstalledGraph(t *testing.T) {
	type shipping struct{}

	built, err := BuildGraph[shipping](DependsOn("Cost", "Weight"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got, err := GraphFor[shipping]()
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != built {
		t.Fatalf("expected the installed graph to be returned")
	}
}

func TestBuildGraphSurfacesDeclarationErrors(t *testing.T) {
	type broken struct{}

	_, err := BuildGraph[broken](DependsOn("Total"))
	var declErr *DeclarationError
	if !errors.As(err, &declErr) {
		t.Fatalf("expected DeclarationError, got %v", err)
	}

	// The failed build must not have installed anything.
	if _, err := GraphFor[broken](); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized after failed build, got %v", err)
	}
}

func TestConcurrentFirstConstructionRetainsOneGraph(t *testing.T) {
	type dashboard struct{}

	const workers = 16
	objects := make([]*Observable, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			o, err := New[dashboard](WithDeclarations(Computed("Uptime")))
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			objects[i] = o
		}(i)
	}
	wg.Wait()

	graph := objects[0].Graph()
	if graph == nil {
		t.Fatalf("expected a built graph")
	}
	for i, o := range objects {
		if o.Graph() != graph {
			t.Fatalf("worker %d observed a different graph", i)
		}
	}
}

func TestNewReusesCachedGraphAndIgnoresLaterDeclarations(t *testing.T) {
	type settings struct{}

	first, err := New[settings](WithDeclarations(Computed("Summary")))
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	second, err := New[settings](WithDeclarations(Computed("Ignored")))
	if err != nil {
		t.Fatalf("second New: %v", err)
	}
	if first.Graph() != second.Graph() {
		t.Fatalf("expected both instances to share the cached graph")
	}
}
