package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-plugin"

	photoadapter "fieldmap/internal/modules/photo/adapter/out"
	uploadrpc "fieldmap/internal/modules/photo/adapter/out/rpc"
	photoout "fieldmap/internal/modules/photo/port/out"
)

const version = "1.0.0"

type server struct {
	store *photoadapter.FolderUploader
}

func (s *server) Describe(_ context.Context, _ *uploadrpc.Empty) (*uploadrpc.Info, error) {
	return &uploadrpc.Info{Name: "folder-uploader", Version: version}, nil
}

func (s *server) Upload(ctx context.Context, in *uploadrpc.UploadRequest) (*uploadrpc.UploadResponse, error) {
	result, err := s.store.Upload(ctx, photoout.UploadRequest{
		Name:        in.Name,
		Folder:      in.Folder,
		ContentType: in.ContentType,
		Data:        in.Data,
	})
	if err != nil {
		return nil, err
	}
	return &uploadrpc.UploadResponse{Location: result.Location}, nil
}

func uploadRoot() string {
	if root := os.Getenv("FIELDMAP_UPLOAD_ROOT"); root != "" {
		return root
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "uploads"
	}
	return filepath.Join(cwd, "uploads")
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: uploadrpc.HandshakeConfig,
		Plugins:         uploadrpc.PluginMap(&server{store: photoadapter.NewFolderUploader(uploadRoot())}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
