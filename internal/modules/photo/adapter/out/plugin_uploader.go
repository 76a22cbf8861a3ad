package out

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	uploadrpc "fieldmap/internal/modules/photo/adapter/out/rpc"
	photoout "fieldmap/internal/modules/photo/port/out"
)

const defaultStartTimeout = 3 * time.Second

type PluginUploaderConfig struct {
	Binary string
	// SHA256 pins the plugin binary; empty skips verification.
	SHA256      string
	CallTimeout time.Duration
	LogOutput   io.Writer
}

// PluginUploader forwards blobs to an out-of-process uploader plugin. The
// plugin process is started on first use and reused until Close.
type PluginUploader struct {
	binary      string
	checksum    string
	callTimeout time.Duration
	logOutput   io.Writer

	mu     sync.Mutex
	client *plugin.Client
	rpc    uploadrpc.UploaderClient
}

func NewPluginUploader(cfg PluginUploaderConfig) *PluginUploader {
	if cfg.LogOutput == nil {
		cfg.LogOutput = io.Discard
	}
	return &PluginUploader{binary: cfg.Binary, checksum: cfg.SHA256, callTimeout: cfg.CallTimeout, logOutput: cfg.LogOutput}
}

func (u *PluginUploader) Upload(ctx context.Context, req photoout.UploadRequest) (photoout.UploadResult, error) {
	client, err := u.connect()
	if err != nil {
		return photoout.UploadResult{}, err
	}
	callCtx, cancel := u.callContext(ctx)
	defer cancel()

	resp, err := client.Upload(callCtx, &uploadrpc.UploadRequest{
		Name:        req.Name,
		Folder:      req.Folder,
		ContentType: req.ContentType,
		Data:        req.Data,
	})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			u.Close()
			return photoout.UploadResult{}, fmt.Errorf("upload %s: plugin timed out after %s", req.Name, u.callTimeout)
		}
		return photoout.UploadResult{}, fmt.Errorf("upload %s: %w", req.Name, err)
	}
	return photoout.UploadResult{Location: resp.Location}, nil
}

// Describe checks the plugin handshake and reports its name and version.
func (u *PluginUploader) Describe(ctx context.Context) (string, string, error) {
	client, err := u.connect()
	if err != nil {
		return "", "", err
	}
	callCtx, cancel := u.callContext(ctx)
	defer cancel()
	info, err := client.Describe(callCtx)
	if err != nil {
		return "", "", fmt.Errorf("describe uploader: %w", err)
	}
	return info.Name, info.Version, nil
}

func (u *PluginUploader) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.client != nil {
		u.client.Kill()
	}
	u.client, u.rpc = nil, nil
}

func (u *PluginUploader) connect() (uploadrpc.UploaderClient, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.rpc != nil && u.client != nil && !u.client.Exited() {
		return u.rpc, nil
	}

	cfg := &plugin.ClientConfig{
		HandshakeConfig:  uploadrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          uploadrpc.PluginMap(nil),
		Cmd:              exec.Command(u.binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Name: "uploader", Output: u.logOutput, Level: hclog.Warn}),
	}
	if u.checksum != "" {
		sum, err := hex.DecodeString(u.checksum)
		if err != nil {
			return nil, fmt.Errorf("uploader checksum: %w", err)
		}
		cfg.SecureConfig = &plugin.SecureConfig{Checksum: sum, Hash: sha256.New()}
	}
	client := plugin.NewClient(cfg)
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		if errors.Is(err, plugin.ErrChecksumsDoNotMatch) {
			return nil, fmt.Errorf("uploader plugin %s: checksum mismatch", u.binary)
		}
		return nil, fmt.Errorf("start uploader plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(uploadrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense uploader: %w", err)
	}
	typed, ok := raw.(uploadrpc.UploaderClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("uploader rpc client type mismatch")
	}
	u.client, u.rpc = client, typed
	return typed, nil
}

func (u *PluginUploader) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok || u.callTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, u.callTimeout)
}

var _ photoout.Uploader = (*PluginUploader)(nil)
