package network

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/APTrust/storage-gateway/models/common"
)

// Publisher puts a message body on a queue topic.
type Publisher interface {
	Publish(topic string, body []byte) error
}

type NSQClient struct {
	URL        string
	httpClient *http.Client
}

// NewNSQClient returns a new NSQ client that will connect to the NSQ
// server and the specified url. The URL is typically available through
// Config.NsqURL, and usually ends with :4151. This is the URL to which
// we post job messages for connectors.
//
// Note that this client provides write access to queue, so we can
// add things. It does not provide read access. The connectors do the
// reading.
func NewNSQClient(url string) *NSQClient {
	return &NSQClient{
		URL:        url,
		httpClient: http.DefaultClient,
	}
}

// Publish posts body to the specified NSQ topic.
func (client *NSQClient) Publish(topic string, body []byte) error {
	pubURL := fmt.Sprintf("%s/pub?topic=%s", client.URL, url.QueryEscape(topic))
	resp, err := client.httpClient.Post(pubURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return common.NewHttpError("Nsqd returned an error when queuing data", err, http.MethodPost, pubURL, 0)
	}

	// nsqd sends a simple OK. We have to read the response body,
	// or the connection will hang open forever.
	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyText := "[no response body]"
		if len(respBody) > 0 {
			bodyText = string(respBody)
		}
		message := fmt.Sprintf("nsqd returned status code %d when attempting to queue data. "+
			"Response body: %s", resp.StatusCode, bodyText)
		return common.NewHttpError(message, nil, http.MethodPost, pubURL, resp.StatusCode)
	}
	return nil
}
