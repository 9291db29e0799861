package devicegrant

import (
	"net/url"
	"path"

	"github.com/jot-sh/jot/internal/validation"
)

// buildVerificationURIs returns the URI a human visits to enter their code,
// plus a variant with the code pre-filled for contexts that can open links.
func (g *Grant) buildVerificationURIs(userCode string) (string, string) {
	baseURL, err := url.Parse(g.baseURL)
	if err != nil {
		return "", ""
	}

	baseURL.Path = path.Join(baseURL.Path, "device")
	verificationURI := baseURL.String()

	completeURL := *baseURL
	q := completeURL.Query()
	q.Set("code", validation.Format(userCode))
	completeURL.RawQuery = q.Encode()

	return verificationURI, completeURL.String()
}
