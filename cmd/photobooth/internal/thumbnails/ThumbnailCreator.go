package thumbnails

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"

	"github.com/adampresley/photostrip/pkg/models"
	"github.com/adampresley/photostrip/pkg/services"
	"github.com/alitto/pond/v2"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

const DefaultMaxSize uint = 300

type ThumbnailCreator interface {
	CreateFor(id string)
	CreateThumbnails()
	Shutdown()
}

type ThumbnailCreatorConfig struct {
	BlobService  services.BlobServicer
	KeyFunc      func(id string) string
	MaxSize      uint
	MaxWorkers   int
	ShutdownCtx  context.Context
	StripService services.StripServicer
}

type ThumbnailCreatorService struct {
	blobService  services.BlobServicer
	keyFunc      func(id string) string
	maxSize      uint
	maxWorkers   int
	pool         pond.Pool
	shutdownCtx  context.Context
	stripService services.StripServicer
}

func NewThumbnailCreatorService(config ThumbnailCreatorConfig) ThumbnailCreatorService {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 1
	}

	if config.MaxSize == 0 {
		config.MaxSize = DefaultMaxSize
	}

	if config.ShutdownCtx == nil {
		config.ShutdownCtx = context.Background()
	}

	return ThumbnailCreatorService{
		blobService:  config.BlobService,
		keyFunc:      config.KeyFunc,
		maxSize:      config.MaxSize,
		maxWorkers:   config.MaxWorkers,
		pool:         pond.NewPool(config.MaxWorkers, pond.WithContext(config.ShutdownCtx)),
		shutdownCtx:  config.ShutdownCtx,
		stripService: config.StripService,
	}
}

/*
CreateThumbnails makes a thumbnail for every saved strip that does not
have one yet.
*/
func (c ThumbnailCreatorService) CreateThumbnails() {
	var (
		err    error
		strips []*models.StripRecord
	)

	slog.Info("starting thumbnail creation...")

	if strips, err = c.stripService.ListMissingThumbnails(); err != nil {
		slog.Error("error retrieving strips without thumbnails", "error", err)
		return
	}

	pool := pond.NewPool(c.maxWorkers, pond.WithContext(c.shutdownCtx))

	for _, strip := range strips {
		pool.Submit(func() {
			if err := c.createThumbnail(strip); err != nil {
				slog.Error("error creating thumbnail", "stripID", strip.ID, "error", err)
			}
		})
	}

	_ = pool.Stop().Wait()
	slog.Info("thumbnail creation finished", "strips", len(strips))
}

/*
CreateFor queues a thumbnail for one strip, usually right after it was
saved.
*/
func (c ThumbnailCreatorService) CreateFor(id string) {
	c.pool.Submit(func() {
		strip, err := c.stripService.GetByID(id)

		if err != nil {
			slog.Error("error retrieving strip for thumbnail", "stripID", id, "error", err)
			return
		}

		if err = c.createThumbnail(strip); err != nil {
			slog.Error("error creating thumbnail", "stripID", id, "error", err)
		}
	})
}

func (c ThumbnailCreatorService) Shutdown() {
	_ = c.pool.Stop().Wait()
}

func (c ThumbnailCreatorService) createThumbnail(strip *models.StripRecord) error {
	var (
		err      error
		original []byte
		img      image.Image
		buf      bytes.Buffer
	)

	if original, _, err = c.blobService.Get(c.shutdownCtx, strip.CompositeKey); err != nil {
		return fmt.Errorf("error retrieving strip image %s: %w", strip.CompositeKey, err)
	}

	if img, _, err = image.Decode(bytes.NewReader(original)); err != nil {
		return fmt.Errorf("error decoding strip image %s: %w", strip.CompositeKey, err)
	}

	thumbnail := resize.Thumbnail(c.maxSize, c.maxSize*2, img, resize.Lanczos3)

	if err = jpeg.Encode(&buf, thumbnail, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("error encoding image for thumbnail: %w", err)
	}

	key := c.keyFunc(strip.ID)

	if err = c.blobService.Put(key, "image/jpeg", buf.Bytes()); err != nil {
		return fmt.Errorf("error uploading thumbnail: %w", err)
	}

	if err = c.stripService.SetThumbnailKey(strip.ID, key); err != nil {
		return fmt.Errorf("error recording thumbnail: %w", err)
	}

	slog.Info("created strip thumbnail", "stripID", strip.ID, "thumbnailKey", key)
	return nil
}
