package server

import (
	"voidline/internal/models"
	"voidline/internal/storage"

	"github.com/gofiber/fiber/v2"
)

const maxUploadSize = 25 << 20 // 25 MiB

var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"video/mp4":  true,
	"audio/mpeg": true,
	"audio/ogg":  true,
}

var uploadBuckets = map[string]string{
	"avatar":  storage.BucketAvatars,
	"banner":  storage.BucketBanners,
	"post":    storage.BucketPosts,
	"void":    storage.BucketVoid,
	"sticker": storage.BucketStickers,
	"audio":   storage.BucketAudio,
}

// UploadMedia handles POST /api/uploads (multipart form: file, kind).
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if s.storage == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fiber.ErrServiceUnavailable))
	}

	bucket, ok := uploadBuckets[c.FormValue("kind")]
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid upload kind"))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("File is required"))
	}
	if fileHeader.Size > maxUploadSize {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("File exceeds the 25MB limit"))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unsupported file type"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	defer func() { _ = file.Close() }()

	key := storage.ObjectKey(userID, fileHeader.Filename)
	if _, err := s.storage.Upload(c.Context(), bucket, key, file, fileHeader.Size, contentType); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"bucket": bucket,
		"key":    key,
	})
}
