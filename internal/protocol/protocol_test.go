package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDeviceResponseWireFormat(t *testing.T) {
	data, err := json.Marshal(DeviceResponse{
		DeviceInfo: DeviceInfo{
			Alias:      "kitchen",
			DeviceType: "desktop",
			IP:         "192.168.1.5",
			Port:       53317,
		},
		Announcement: true,
		Fingerprint:  "abc",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	wire := string(data)
	for _, key := range []string{`"alias"`, `"deviceType"`, `"announcement"`, `"fingerprint"`} {
		if !strings.Contains(wire, key) {
			t.Errorf("wire %s missing key %s", wire, key)
		}
	}
	// Transport addressing never leaves the process.
	for _, forbidden := range []string{"192.168.1.5", "53317", `"ip"`, `"port"`} {
		if strings.Contains(wire, forbidden) {
			t.Errorf("wire %s leaks %s", wire, forbidden)
		}
	}
	// deviceModel is omitted when empty.
	if strings.Contains(wire, "deviceModel") {
		t.Errorf("wire %s carries empty deviceModel", wire)
	}
}

func TestDecodeDeviceResponse(t *testing.T) {
	resp, err := DecodeDeviceResponse([]byte(`{
		"alias": "Phone",
		"deviceType": "mobile",
		"deviceModel": "android",
		"announcement": true,
		"fingerprint": "f-1"
	}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Alias != "Phone" || resp.DeviceModel != "android" || !resp.Announcement {
		t.Errorf("decoded %+v", resp)
	}

	if _, err := DecodeDeviceResponse([]byte("{truncated")); err == nil {
		t.Error("want an error for malformed JSON")
	}
}

func TestSendRequestDecode(t *testing.T) {
	var req SendRequest
	err := json.Unmarshal([]byte(`{
		"info": {"alias": "Phone", "deviceType": "mobile"},
		"files": {
			"f1": {"id": "f1", "size": 5, "fileName": "a.txt", "fileType": "text"}
		}
	}`), &req)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if req.Info.Alias != "Phone" {
		t.Errorf("info alias = %q", req.Info.Alias)
	}
	f, ok := req.Files["f1"]
	if !ok {
		t.Fatal("missing file f1")
	}
	if f.Size != 5 || f.FileName != "a.txt" || f.FileType != FileTypeText {
		t.Errorf("file = %+v", f)
	}
}

func TestSameDeviceAndSameSource(t *testing.T) {
	a := DeviceResponse{DeviceInfo: DeviceInfo{IP: "10.0.0.1"}, Fingerprint: "x"}
	b := DeviceResponse{DeviceInfo: DeviceInfo{IP: "10.0.0.2"}, Fingerprint: "x"}

	if !a.SameDevice(b) {
		t.Error("same fingerprint must match regardless of address")
	}
	if a.SameSource(b.DeviceInfo) {
		t.Error("different addresses are different sources")
	}
}
