package limiter

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gofrs/uuid"
)

type ExternalLimiter struct {
	host *url.URL
}

func NewExternalLimiter(host *url.URL) *ExternalLimiter {
	return &ExternalLimiter{host: host}
}

func (c ExternalLimiter) CanCreateForm(creatorId uuid.UUID) bool {
	return c.doRequest("/can/create/form/by/" + creatorId.String())
}

func (c ExternalLimiter) CanSubmit(formId uuid.UUID) bool {
	return c.doRequest("/can/add/form/" + formId.String() + "/submission")
}

func (c ExternalLimiter) CanAddAttachment(formId uuid.UUID) bool {
	return c.doRequest("/can/add/form/" + formId.String() + "/attachment")
}

func (c ExternalLimiter) GetRemainingForms(creatorId uuid.UUID) int {
	return c.doRemainRequest("/remain/forms/by/" + creatorId.String())
}

func (c ExternalLimiter) GetRemainingSubmissions(formId uuid.UUID) int {
	return c.doRemainRequest("/remain/form/" + formId.String() + "/submissions")
}

func (c ExternalLimiter) GetRemainingAttachments(formId uuid.UUID) int {
	return c.doRemainRequest("/remain/form/" + formId.String() + "/attachments")
}

func (c ExternalLimiter) doRemainRequest(path string) int {
	resp, err := http.Get(c.host.ResolveReference(&url.URL{Path: path}).String())
	if err != nil {
		slog.Error("Request remains", "err", err)
		return -1
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return -1
	}

	remain, err := strconv.Atoi(resp.Header.Get("X-Entity-Remain"))
	if err != nil {
		slog.Error("Parse remain answer", "raw", resp.Header.Get("X-Entity-Remain"), "err", err)
		return -1
	}
	return remain
}

func (c ExternalLimiter) doRequest(path string) bool {
	resp, err := http.Get(c.host.ResolveReference(&url.URL{Path: path}).String())
	if err != nil {
		slog.Error("Request access rule", "err", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
