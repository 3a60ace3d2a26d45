package imagetransfer

import (
	"net/url"
	"regexp"
	"strings"
)

const driveHost = "drive.google.com"

var (
	drivePathID  = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
	driveQueryID = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
)

// IsDriveLink reports whether value points at Google Drive
func IsDriveLink(value string) bool {
	return strings.Contains(value, driveHost)
}

// ExtractDriveFileID returns the file ID of a Drive share link. Supported forms:
//
//	https://drive.google.com/file/d/{id}/view
//	https://drive.google.com/open?id={id}
//	https://drive.google.com/uc?id={id}
func ExtractDriveFileID(link string) (string, bool) {
	if link == "" {
		return "", false
	}
	if m := drivePathID.FindStringSubmatch(link); m != nil {
		return m[1], true
	}
	if m := driveQueryID.FindStringSubmatch(link); m != nil {
		return m[1], true
	}
	return "", false
}

// DirectDownloadURL returns the URL serving the raw bytes of a Drive file
func DirectDownloadURL(fileID string) string {
	return "https://drive.google.com/uc?export=download&id=" + url.QueryEscape(fileID)
}
