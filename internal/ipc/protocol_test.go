package ipc

import (
	"encoding/json"
	"testing"
)

func TestParseRequest(t *testing.T) {
	data := []byte(`{"command":"CREATE_GROUP","payload":{"windows":[1,2],"name":"work"}}` + "\n")
	req, err := ParseRequest(data)
	if err != nil {
		t.Fatalf("ParseRequest error: %v", err)
	}
	if req.Command != CommandCreateGroup {
		t.Errorf("command = %q, want CREATE_GROUP", req.Command)
	}

	var p CreateGroupPayload
	if err := json.Unmarshal(req.Payload, &p); err != nil {
		t.Fatalf("payload unmarshal error: %v", err)
	}
	if len(p.Windows) != 2 || p.Name != "work" {
		t.Errorf("payload = %+v", p)
	}
}

func TestParseRequest_Invalid(t *testing.T) {
	if _, err := ParseRequest([]byte("not json")); err == nil {
		t.Error("ParseRequest should fail on malformed input")
	}
}

func TestResponseMarshal(t *testing.T) {
	ok, err := NewOKResponse(StatusData{GroupCount: 3, DaemonRunning: true})
	if err != nil {
		t.Fatalf("NewOKResponse error: %v", err)
	}
	data, err := ok.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var back Response
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if back.Status != "OK" {
		t.Errorf("status = %q, want OK", back.Status)
	}
	var status StatusData
	if err := json.Unmarshal(back.Data, &status); err != nil {
		t.Fatalf("data unmarshal error: %v", err)
	}
	if status.GroupCount != 3 || !status.DaemonRunning {
		t.Errorf("status = %+v", status)
	}

	bad := NewErrorResponse("no such group")
	if bad.Status != "ERROR" || bad.Error != "no such group" {
		t.Errorf("error response = %+v", bad)
	}
}
