package client

import (
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"logstore/internal/domain"
)

const (
	entries_endpoint = "/db/{key}"
)

type EntryResponse struct {
	Key       string `json:"key,omitempty"`
	Value     string `json:"value,omitempty"`
	Tombstone bool   `json:"tombstone"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// LogStoreClient talks to the HTTP front end. A missing key is reported as
// domain.ErrNotFound.
type LogStoreClient struct {
	client    *resty.Client
	serverUrl string
}

func NewLogStoreClient(serverUrl string) *LogStoreClient {
	return &LogStoreClient{
		client:    resty.New(),
		serverUrl: serverUrl,
	}
}

func (c *LogStoreClient) Get(key string) (string, error) {
	var resp EntryResponse
	r, err := c.client.R().
		SetPathParam("key", key).
		SetResult(&resp).
		SetError(&errorResponse{}).
		Get(c.serverUrl + entries_endpoint)
	if err := checkResponse(r, err); err != nil {
		return "", err
	}
	return resp.Value, nil
}

func (c *LogStoreClient) Put(key, value string) error {
	r, err := c.client.R().
		SetPathParam("key", key).
		SetHeader("Content-Type", "text/plain").
		SetBody(value).
		SetError(&errorResponse{}).
		Put(c.serverUrl + entries_endpoint)
	return checkResponse(r, err)
}

func (c *LogStoreClient) Delete(key string) error {
	r, err := c.client.R().
		SetPathParam("key", key).
		SetError(&errorResponse{}).
		Delete(c.serverUrl + entries_endpoint)
	return checkResponse(r, err)
}

func checkResponse(r *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if r.StatusCode() == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if r.IsError() {
		msg := r.Status()
		if e, ok := r.Error().(*errorResponse); ok && e.Error != "" {
			msg = e.Error
		}
		return fmt.Errorf("server returned %d: %s", r.StatusCode(), msg)
	}
	return nil
}
