// Package media builds the path -> public URL capabilities handed to
// orderitems.ResolveImagePath. None of them touch the network.
package media

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"storefront/internal/config"
	"storefront/internal/orderitems"
)

var ErrEmptyPath = errors.New("empty storage path")

// BaseURL resolves paths against a fixed public prefix such as a CDN origin.
func BaseURL(base string) (orderitems.PublicURLFunc, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return nil, fmt.Errorf("parse media base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("media base url must be absolute http(s): %q", base)
	}
	prefix := strings.TrimRight(u.String(), "/")

	return func(path string) (string, error) {
		escaped := escapePath(path)
		if escaped == "" {
			return "", ErrEmptyPath
		}
		return prefix + "/" + escaped, nil
	}, nil
}

// SupabasePublic resolves objects of a public storage bucket on a Supabase
// project (https://<ref>.supabase.co/storage/v1/object/public/<bucket>/<path>).
func SupabasePublic(projectURL, bucket string) (orderitems.PublicURLFunc, error) {
	bucket = strings.Trim(bucket, "/ ")
	if bucket == "" {
		return nil, errors.New("media bucket is required")
	}
	return BaseURL(strings.TrimRight(strings.TrimSpace(projectURL), "/") + "/storage/v1/object/public/" + url.PathEscape(bucket))
}

// AzureBlob resolves paths to blob URLs of a public container.
func AzureBlob(client *azblob.Client, container string) orderitems.PublicURLFunc {
	containerClient := client.ServiceClient().NewContainerClient(container)
	return func(path string) (string, error) {
		name := strings.Trim(path, "/")
		if name == "" {
			return "", ErrEmptyPath
		}
		return containerClient.NewBlobClient(name).URL(), nil
	}
}

// NewAzureBlobClient creates an anonymous client; public URLs need no key.
func NewAzureBlobClient(account string) (*azblob.Client, error) {
	client, err := azblob.NewClientWithNoCredential(fmt.Sprintf("https://%s.blob.core.windows.net/", account), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return client, nil
}

// FromConfig picks the resolver in order MEDIA_BASE_URL, Azure account,
// datastore project bucket. A nil func means images stay unresolved.
func FromConfig(cfg config.Config, logger *slog.Logger) (orderitems.PublicURLFunc, error) {
	switch {
	case strings.TrimSpace(cfg.MediaBaseURL) != "":
		return BaseURL(cfg.MediaBaseURL)
	case strings.TrimSpace(cfg.AzureStorageAccount) != "":
		client, err := NewAzureBlobClient(cfg.AzureStorageAccount)
		if err != nil {
			return nil, err
		}
		return AzureBlob(client, cfg.AzureStorageContainer), nil
	case strings.TrimSpace(cfg.DatastoreURL) != "":
		return SupabasePublic(cfg.DatastoreURL, cfg.MediaBucket)
	}
	if logger != nil {
		logger.Warn("no media location configured, relative image paths will not resolve")
	}
	return nil, nil
}

func escapePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, url.PathEscape(p))
	}
	return strings.Join(out, "/")
}
