package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
	"uplook_backend/internal/model"
	"uplook_backend/internal/util"
	"uplook_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ContentStore interface {
	FindContent(ctx context.Context, f model.ContentFilter) ([]model.Content, error)
	Count(ctx context.Context, f model.ContentFilter) (int64, error)
	FindByID(ctx context.Context, id uint) (*model.Content, error)
	Create(ctx context.Context, c *model.Content) error
	Update(ctx context.Context, c *model.Content) error
	Delete(ctx context.Context, id uint) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// ContentInput 管理端创建/更新内容
type ContentInput struct {
	Title        string            `json:"title" binding:"required,max=255"`
	Description  string            `json:"description"`
	ContentType  model.ContentType `json:"contentType" binding:"required,oneof=video music meditation quiz article learning_module"`
	Category     model.Category    `json:"category" binding:"required,oneof=sleep anxiety self_confidence work"`
	URL          string            `json:"url" binding:"required"`
	ThumbnailURL string            `json:"thumbnailUrl"`
	Duration     int               `json:"duration" binding:"min=0"`
}

type ContentPage struct {
	Items []model.Content `json:"items"`
	Total int64           `json:"total"`
}

// LibrarySection 学习模块按分类分组
type LibrarySection struct {
	Category model.Category  `json:"category"`
	Title    string          `json:"title"`
	Modules  []model.Content `json:"modules"`
}

// MediaUpload 上传结果，可直接填入 ContentInput
type MediaUpload struct {
	URL          string  `json:"url"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	Duration     int     `json:"duration"`
	Format       string  `json:"format"`
	Size         int64   `json:"size"`
	MimeType     string  `json:"mimeType"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	probe        float64 // 原始时长，截帧位置用
}

type ContentService struct {
	Contents ContentStore
	Storage  *StorageService
	Popular  cacheInvalidator
	TempDir  string
	Now      func() time.Time
}

func NewContentService(contents ContentStore, storage *StorageService, popular cacheInvalidator, tempDir string) *ContentService {
	return &ContentService{
		Contents: contents,
		Storage:  storage,
		Popular:  popular,
		TempDir:  tempDir,
		Now:      time.Now,
	}
}

func (s *ContentService) Explore(ctx context.Context, f model.ContentFilter) (*ContentPage, error) {
	items, err := s.Contents.FindContent(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.Contents.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Content{}
	}
	return &ContentPage{Items: items, Total: total}, nil
}

func (s *ContentService) Library(ctx context.Context) ([]LibrarySection, error) {
	modules, err := s.Contents.FindContent(ctx, model.ContentFilter{
		ContentTypes: []model.ContentType{model.ContentLearningModule},
	})
	if err != nil {
		return nil, err
	}

	byCategory := make(map[model.Category][]model.Content)
	for _, m := range modules {
		byCategory[m.Category] = append(byCategory[m.Category], m)
	}

	sections := make([]LibrarySection, 0, len(model.Categories))
	for _, c := range model.Categories {
		if len(byCategory[c]) == 0 {
			continue
		}
		sections = append(sections, LibrarySection{Category: c, Title: c.Title(), Modules: byCategory[c]})
	}
	return sections, nil
}

func (s *ContentService) Get(ctx context.Context, id uint) (*model.Content, error) {
	c, err := s.Contents.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrContentNotFound
	}
	return c, err
}

func (s *ContentService) Create(ctx context.Context, creatorID uint, in ContentInput) (*model.Content, error) {
	c := &model.Content{CreatedBy: creatorID}
	applyContentInput(c, in)
	if err := s.Contents.Create(ctx, c); err != nil {
		return nil, err
	}
	logger.Log.Info("Content created", zap.Uint("content_id", c.ID), zap.String("category", string(c.Category)))
	return c, nil
}

func (s *ContentService) Update(ctx context.Context, id uint, in ContentInput) (*model.Content, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyContentInput(c, in)
	if err := s.Contents.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContentService) Delete(ctx context.Context, id uint) error {
	if err := s.Contents.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrContentNotFound
		}
		return err
	}
	if s.Popular != nil {
		s.Popular.Invalidate(ctx)
	}
	return nil
}

func applyContentInput(c *model.Content, in ContentInput) {
	c.Title = strings.TrimSpace(in.Title)
	c.Description = in.Description
	c.ContentType = in.ContentType
	c.Category = in.Category
	c.URL = in.URL
	c.ThumbnailURL = in.ThumbnailURL
	c.Duration = in.Duration
}

// UploadMedia 保存音视频/图片，视频会探测时长并截取封面
func (s *ContentService) UploadMedia(ctx context.Context, file *multipart.FileHeader) (*MediaUpload, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	mimeType, err := util.ValidateMimeType(src, []string{util.MimeVideo, util.MimeAudio, util.MimeImage, "application/octet-stream"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrUnsupportedMedia, err)
	}
	if seeker, ok := src.(io.Seeker); ok {
		seeker.Seek(0, io.SeekStart)
	}

	kind, ok := mediaKind(file.Filename, mimeType)
	if !ok {
		return nil, util.ErrUnsupportedMedia
	}

	now := s.Now()
	key := ObjectKey(kind, file.Filename, now)
	contentType := file.Header.Get("Content-Type")
	result := &MediaUpload{
		Size:     file.Size,
		MimeType: mimeType,
		Format:   strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), "."),
	}

	if kind == "image" {
		url, err := s.Storage.Put(ctx, key, src, file.Size, contentType)
		if err != nil {
			return nil, err
		}
		result.URL = url
		return result, nil
	}

	// 音视频先落临时文件，ffprobe 需要可寻址的本地文件
	if err := os.MkdirAll(s.TempDir, 0755); err != nil {
		return nil, err
	}
	tmpPath := filepath.Join(s.TempDir, filepath.Base(key))
	defer os.Remove(tmpPath)
	if err := copyToFile(tmpPath, src); err != nil {
		return nil, err
	}

	s.probeInto(tmpPath, result)

	url, err := s.Storage.PutFile(ctx, key, tmpPath, contentType)
	if err != nil {
		return nil, err
	}
	result.URL = url

	if kind == "video" {
		result.ThumbnailURL = s.thumbnail(ctx, tmpPath, result.probe, now)
	}
	return result, nil
}

func (s *ContentService) probeInto(path string, result *MediaUpload) {
	info, err := util.ProbeMedia(path)
	if err != nil {
		logger.Log.Warn("Media probe failed", zap.String("path", path), zap.Error(err))
		return
	}
	result.probe = info.Duration
	result.Duration = int(math.Round(info.Duration))
	result.Width = info.Width
	result.Height = info.Height
	if info.Format != "unknown" {
		result.Format = info.Format
	}
}

// thumbnail 截帧失败只记录日志，封面可以之后手动补
func (s *ContentService) thumbnail(ctx context.Context, videoPath string, duration float64, now time.Time) string {
	offset := 3.0
	if duration > 0 && duration < offset*2 {
		offset = duration / 2
	}

	thumbKey := ObjectKey("thumbnails", "frame.jpg", now)
	thumbPath := filepath.Join(s.TempDir, filepath.Base(thumbKey))
	defer os.Remove(thumbPath)

	if err := util.ExtractThumbnail(videoPath, thumbPath, offset); err != nil {
		logger.Log.Warn("Thumbnail extraction failed", zap.Error(err))
		return ""
	}
	url, err := s.Storage.PutFile(ctx, thumbKey, thumbPath, "image/jpeg")
	if err != nil {
		logger.Log.Warn("Thumbnail upload failed", zap.Error(err))
		return ""
	}
	return url
}

func mediaKind(filename, mimeType string) (string, bool) {
	switch {
	case util.IsImage(mimeType):
		return "image", true
	case util.IsVideo(mimeType) || util.HasExtension(filename, util.AllowedVideoExtensions):
		return "video", true
	case strings.HasPrefix(mimeType, util.MimeAudio) || util.HasExtension(filename, util.AllowedAudioExtensions):
		return "audio", true
	}
	return "", false
}

func copyToFile(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
