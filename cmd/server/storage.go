package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/storage"
)

const uploadsRoute = "/uploads"

// InitStorage picks where logo and content images are written. Local files
// are served by the server itself under uploadsRoute.
func InitStorage(env Environment) (storage.Storage, error) {
	if !env.UseSpaces {
		log.Info().Str("dir", env.UploadDir).Msg("[storage] local uploads")
		return storage.NewLocalStorage(env.UploadDir, uploadsRoute), nil
	}

	sp := env.Spaces
	spaces, err := storage.NewSpacesStorage(sp.Endpoint, sp.Region, sp.Bucket, sp.CDNURL, sp.AccessKey, sp.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("spaces bucket %q: %w", sp.Bucket, err)
	}
	log.Info().Str("bucket", sp.Bucket).Str("cdn", sp.CDNURL).Msg("[storage] uploads go to Spaces")
	return spaces, nil
}
