// Package protocol defines the LocalSend v1 wire types. All JSON keys are
// camelCase; ip and port are transport-derived and never serialized.
package protocol

import "encoding/json"

// DeviceInfo is the advertised identity of a peer.
type DeviceInfo struct {
	Alias       string `json:"alias"`
	DeviceType  string `json:"deviceType"`
	DeviceModel string `json:"deviceModel,omitempty"`

	// Filled from the UDP packet source, never sent on the wire.
	IP   string `json:"-"`
	Port int    `json:"-"`
}

// SameSource reports whether two devices come from the same address.
// A changed alias from the same source updates the existing table entry.
func (d DeviceInfo) SameSource(other DeviceInfo) bool {
	return d.IP == other.IP
}

// DeviceResponse is the multicast announcement payload. Announcement=true
// solicits replies; false marks a reply that must not be re-answered.
type DeviceResponse struct {
	DeviceInfo
	Announcement bool   `json:"announcement"`
	Fingerprint  string `json:"fingerprint"`
}

// SameDevice compares by fingerprint. Source IPs are unreliable for
// self-detection: our own multicast packets can loop back with an address
// we never self-assigned.
func (r DeviceResponse) SameDevice(other DeviceResponse) bool {
	return r.Fingerprint == other.Fingerprint
}

// FileType classifies an offered file.
type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypeVideo FileType = "video"
	FileTypePdf   FileType = "pdf"
	FileTypeText  FileType = "text"
	FileTypeOther FileType = "other"
)

// FileInfo describes one offered file.
type FileInfo struct {
	ID       string   `json:"id"`
	Size     int64    `json:"size"`
	FileName string   `json:"fileName"`
	FileType FileType `json:"fileType"`
}

// SendRequest is the body of POST /api/localsend/v1/send-request.
type SendRequest struct {
	Info  DeviceInfo          `json:"info"`
	Files map[string]FileInfo `json:"files"`
}

// SendInfo carries the query parameters of POST /api/localsend/v1/send.
type SendInfo struct {
	FileID string `json:"fileId"`
	Token  string `json:"token"`
}

// DecodeDeviceResponse parses one multicast datagram.
func DecodeDeviceResponse(data []byte) (DeviceResponse, error) {
	var resp DeviceResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return DeviceResponse{}, err
	}
	return resp, nil
}
