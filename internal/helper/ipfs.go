package helper

import (
	"net/url"
	"regexp"
	"strings"
)

var ipfsHash = regexp.MustCompile("((Qm[1-9A-HJ-NP-Za-km-z]{44}|bafy[a-z2-7]{52,}).*$)")

func IsUrl(uri string) bool {
	u, err := url.Parse(uri)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// IsIpfs reports whether uri is an ipfs:// uri or a bare content hash.
func IsIpfs(uri string) bool {
	if strings.HasPrefix(uri, "ipfs://") {
		return true
	}
	if IsUrl(uri) {
		return false
	}

	return ipfsHash.MatchString(uri)
}

// GatewayUri rewrites ipfs uris onto an http gateway. Anything else is
// returned unchanged.
func GatewayUri(uri, gateway string) string {
	if gateway == "" || !IsIpfs(uri) {
		return uri
	}

	if strings.HasPrefix(uri, "ipfs://") {
		return strings.TrimSuffix(gateway, "/") + "/" + strings.TrimPrefix(strings.TrimPrefix(uri, "ipfs://"), "ipfs/")
	}

	return strings.TrimSuffix(gateway, "/") + "/" + ipfsHash.FindStringSubmatch(uri)[1]
}
