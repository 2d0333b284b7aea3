package media

import (
	"strings"
	"testing"

	"storefront/internal/config"
	"storefront/internal/orderitems"
)

func TestBaseURL(t *testing.T) {
	resolve, err := BaseURL("https://cdn.example/assets/")
	if err != nil {
		t.Fatal(err)
	}
	got, err := resolve("product-images/red shirt.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://cdn.example/assets/product-images/red%20shirt.jpg" {
		t.Fatalf("got %s", got)
	}
	if _, err := resolve("/"); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := BaseURL("cdn.example"); err == nil {
		t.Fatal("expected error for relative base")
	}
}

func TestSupabasePublicWithNormalizer(t *testing.T) {
	resolve, err := SupabasePublic("https://abc.supabase.co/", "product-images")
	if err != nil {
		t.Fatal(err)
	}
	got := orderitems.ResolveImagePath("/shoe.jpg", resolve)
	want := "https://abc.supabase.co/storage/v1/object/public/product-images/shoe.jpg"
	if got != want {
		t.Fatalf("got %s want %s", got, want)
	}
	if again := orderitems.ResolveImagePath(got, resolve); again != got {
		t.Fatalf("resolved twice: %s", again)
	}
}

func TestAzureBlob(t *testing.T) {
	client, err := NewAzureBlobClient("shopmedia")
	if err != nil {
		t.Fatal(err)
	}
	resolve := AzureBlob(client, "product-images")
	got, err := resolve("shoe.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "https://shopmedia.blob.core.windows.net/product-images/") || !strings.HasSuffix(got, "shoe.jpg") {
		t.Fatalf("got %s", got)
	}
	if _, err := resolve(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestFromConfig(t *testing.T) {
	resolve, err := FromConfig(config.Config{MediaBaseURL: "https://cdn.example", DatastoreURL: "https://abc.supabase.co"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := resolve("a.jpg"); got != "https://cdn.example/a.jpg" {
		t.Fatalf("base url should win, got %s", got)
	}

	resolve, err = FromConfig(config.Config{DatastoreURL: "https://abc.supabase.co", MediaBucket: "media"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := resolve("a.jpg"); got != "https://abc.supabase.co/storage/v1/object/public/media/a.jpg" {
		t.Fatalf("got %s", got)
	}

	resolve, err = FromConfig(config.Config{}, nil)
	if err != nil || resolve != nil {
		t.Fatalf("expected no resolver, got err=%v", err)
	}
}
