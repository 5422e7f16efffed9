package proxi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ChrisMcGann/SpecView/pkg/core"
)

const testUSI = "mzspec:PXD000561:Adult_Frontalcortex_bRP_Elite_85_f09:scan:17555:VLHPLEGAVVIIFK/2"

func spectrumServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if got := r.URL.Query().Get("usi"); got != testUSI {
			t.Errorf("usi = %q", got)
		}
		if got := r.URL.Query().Get("resultType"); got != "full" {
			t.Errorf("resultType = %q", got)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPriority(t *testing.T) {
	first := spectrumServer(t, http.StatusNotFound, "", nil)
	second := spectrumServer(t, http.StatusOK, `[{"mzs":[100,200],"intensities":[1,2],"attributes":[{"accession":"MS:1000041","name":"charge state","value":"2"}]}]`, nil)
	third := spectrumServer(t, http.StatusOK, `{"mzs":[999],"intensities":[9]}`, nil)

	c, err := NewClient([]Source{{"a", first.URL}, {"b", second.URL}, {"c", third.URL}}, 8, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	s, err := c.Fetch(context.Background(), testUSI)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if s.Len() != 2 || s.MZs[1] != 200 {
		t.Errorf("Fetch() = %+v, want the spectrum of the second source", s)
	}
	if v, ok := s.Attribute("charge state"); !ok || v != "2" {
		t.Errorf("charge state attribute = %q, %v", v, ok)
	}
}

func TestFetchAllFail(t *testing.T) {
	notFound := spectrumServer(t, http.StatusNotFound, "", nil)
	garbage := spectrumServer(t, http.StatusOK, "not json", nil)
	invalid := spectrumServer(t, http.StatusOK, `{"mzs":[1,2],"intensities":[1]}`, nil)

	c, _ := NewClient([]Source{{"a", notFound.URL}, {"b", garbage.URL}, {"c", invalid.URL}}, 8, time.Second)
	_, err := c.Fetch(context.Background(), testUSI)

	var all *AllSourcesError
	if !errors.As(err, &all) {
		t.Fatalf("Fetch() error = %v, want AllSourcesError", err)
	}
	if len(all.Errors) != 3 {
		t.Fatalf("got %d errors, want 3", len(all.Errors))
	}

	var fe *FetchError
	if !errors.As(all.Errors[0], &fe) || fe.Status != http.StatusNotFound || fe.Source != "a" {
		t.Errorf("first error = %v", all.Errors[0])
	}
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Error("validation failure of the third source not reachable through errors.As")
	}
}

type memStore struct {
	mu   sync.Mutex
	data map[string]*core.Spectrum
}

func (m *memStore) Get(usi string) (*core.Spectrum, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[usi]
	return s, ok, nil
}

func (m *memStore) Put(usi string, s *core.Spectrum) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[usi] = s
	return nil
}

func TestFetchCaches(t *testing.T) {
	var hits int32
	srv := spectrumServer(t, http.StatusOK, `{"mzs":[1],"intensities":[1]}`, &hits)
	store := &memStore{data: map[string]*core.Spectrum{}}

	c, _ := NewClient([]Source{{"a", srv.URL}}, 8, time.Second, WithStore(store))
	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(context.Background(), testUSI); err != nil {
			t.Fatal(err)
		}
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("server hit %d times, want 1", hits)
	}
	if _, ok, _ := store.Get(testUSI); !ok {
		t.Error("spectrum not persisted")
	}

	// a fresh client is served from the store
	c2, _ := NewClient([]Source{{"a", srv.URL}}, 8, time.Second, WithStore(store))
	if _, err := c2.Fetch(context.Background(), testUSI); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("server hit %d times after store lookup, want 1", hits)
	}
}

func TestSourcesByName(t *testing.T) {
	got, err := SourcesByName([]string{"pride", "jPOST"})
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != PRIDE || got[1] != JPOST {
		t.Errorf("SourcesByName() = %v", got)
	}
	if _, err := SourcesByName([]string{"nowhere"}); err == nil {
		t.Error("expected error for unknown source")
	}
	if names := DefaultSourceNames(); len(names) != 5 || names[0] != "ProteomeCentral" {
		t.Errorf("DefaultSourceNames() = %v", names)
	}
}

func TestFetchBodyLimit(t *testing.T) {
	body := `{"mzs":[100,200,300],"intensities":[1,2,3]}`
	srv := spectrumServer(t, http.StatusOK, body, nil)

	tests := []struct {
		name    string
		limit   int64
		wantErr bool
	}{
		{"default", 0, false},
		{"exact", int64(len(body)), false},
		{"too small", int64(len(body)) - 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := NewClient([]Source{{"a", srv.URL}}, 8, time.Second, WithMaxBody(tt.limit))
			_, err := c.Fetch(context.Background(), testUSI)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Fetch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrBodyTooLarge) {
				t.Errorf("Fetch() error = %v, want ErrBodyTooLarge", err)
			}
		})
	}
}
