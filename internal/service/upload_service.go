package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/d60-Lab/chirp/pkg/dto"
	"github.com/d60-Lab/chirp/pkg/storage"
)

const defaultMaxUploadBytes = 1 << 20

type UploadService interface {
	Presign(req dto.PresignRequest) (*dto.PresignedUpload, error)
}

type uploadService struct {
	presigner storage.Presigner
	maxBytes  int64
}

func NewUploadService(presigner storage.Presigner, maxBytes int64) UploadService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &uploadService{presigner: presigner, maxBytes: maxBytes}
}

func (s *uploadService) Presign(req dto.PresignRequest) (*dto.PresignedUpload, error) {
	suffix, ok := storage.FileSuffix(req.FileType)
	if !ok {
		return nil, InvalidFileType(req.FileType)
	}
	if req.FileSize > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, req.FileSize, s.maxBytes)
	}

	key := fmt.Sprintf("%s.%s", uuid.New().String(), suffix)
	put, err := s.presigner.PresignPut(key, req.FileType, req.FileSize)
	if err != nil {
		return nil, err
	}
	return &dto.PresignedUpload{
		URL:       put.URL,
		Key:       key,
		Method:    storage.Method,
		Headers:   put.Headers,
		ExpiresAt: put.ExpiresAt,
	}, nil
}
