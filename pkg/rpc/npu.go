package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kisy/npustat/pkg/model"
)

// DefaultObject is the rpcd plugin exposing the NPU calls.
const DefaultObject = "luci.airoha_npu"

// NPU fetches status and PPE entries through a ubus Client.
type NPU struct {
	client *Client
	object string
}

func NewNPU(client *Client, object string) *NPU {
	if object == "" {
		object = DefaultObject
	}
	return &NPU{client: client, object: object}
}

func (n *NPU) Status(ctx context.Context) (model.DeviceStatus, error) {
	var st model.DeviceStatus
	err := n.client.Call(ctx, n.object, "getStatus", nil, &st)
	return st, err
}

func (n *NPU) Entries(ctx context.Context) (model.PpeEntries, error) {
	var pe model.PpeEntries
	err := n.client.Call(ctx, n.object, "getPpeEntries", nil, &pe)
	return pe, err
}

var errNoFile = errors.New("no file configured")

// FileSource reads captured getStatus/getPpeEntries replies from disk.
// An empty path fails that resource, as an unreachable backend would.
type FileSource struct {
	StatusPath  string
	EntriesPath string
}

func (f FileSource) Status(ctx context.Context) (model.DeviceStatus, error) {
	var st model.DeviceStatus
	err := readJSON(f.StatusPath, &st)
	return st, err
}

func (f FileSource) Entries(ctx context.Context) (model.PpeEntries, error) {
	var pe model.PpeEntries
	err := readJSON(f.EntriesPath, &pe)
	return pe, err
}

func readJSON(path string, out any) error {
	if path == "" {
		return errNoFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
