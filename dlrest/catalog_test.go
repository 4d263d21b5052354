package dlrest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestResolveScheduledCatalog(t *testing.T) {
	tests := []struct {
		name    string
		listing string
		want    string
	}{
		{
			name: "scheduled entry first",
			listing: `{"contains":[
				{"identifier":"c1","subscriptionType":"scheduled","title":"S"},
				{"identifier":"c2","subscriptionType":"realtime","title":"R"}
			]}`,
			want: "c1",
		},
		{
			name: "scheduled entry last",
			listing: `{"contains":[
				{"identifier":"c1","subscriptionType":"realtime","title":"R"},
				{"identifier":"c2","subscriptionType":"bulk","title":"B"},
				{"identifier":"c3","subscriptionType":"scheduled","title":"S"}
			]}`,
			want: "c3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/eap/catalogs/", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.listing)
			})

			client := newTestClient(t, mux)
			got, err := client.ResolveScheduledCatalog(context.Background())
			if err != nil {
				t.Fatalf("ResolveScheduledCatalog failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected catalog %s, got %s", tt.want, got)
			}
			if client.CatalogID() != tt.want {
				t.Errorf("catalog id not retained, got %s", client.CatalogID())
			}
		})
	}
}

func TestResolveScheduledCatalogNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/eap/catalogs/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"contains":[
			{"identifier":"c1","subscriptionType":"realtime","title":"R"},
			{"identifier":"c2","subscriptionType":"bulk","title":"B"}
		]}`)
	})

	client := newTestClient(t, mux)
	_, err := client.ResolveScheduledCatalog(context.Background())

	var notFound *CatalogNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected CatalogNotFoundError, got %v", err)
	}
	// The full listing travels with the error for diagnosis.
	if len(notFound.Catalogs) != 2 {
		t.Errorf("expected 2 catalogs in error, got %d", len(notFound.Catalogs))
	}
}
