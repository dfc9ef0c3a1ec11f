package cloudinary

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"

	"github.com/thumuadocu/market-api/internal/config"
	"github.com/thumuadocu/market-api/internal/utils"
)

// UploadParams параметры прямой загрузки изображения из браузера
type UploadParams struct {
	Timestamp string `json:"timestamp"`
	Folder    string `json:"folder"`
	Signature string `json:"signature"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
}

// CloudinaryService предоставляет методы для работы с Cloudinary
type CloudinaryService struct {
	cld          *cloudinary.Cloudinary
	uploadFolder string
	jwtService   *utils.JWTService
	now          func() time.Time
}

// NewCloudinaryService создает новый экземпляр CloudinaryService
func NewCloudinaryService(cfg config.CloudinaryConfig, jwtService *utils.JWTService) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Cloudinary: %w", err)
	}

	return &CloudinaryService{
		cld:          cld,
		uploadFolder: cfg.UploadFolder,
		jwtService:   jwtService,
		now:          time.Now,
	}, nil
}

// GenerateUploadParams подписывает timestamp и папку загрузки API-секретом
func (s *CloudinaryService) GenerateUploadParams() (*UploadParams, error) {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)

	params := url.Values{}
	params.Set("timestamp", timestamp)
	params.Set("folder", s.uploadFolder)

	signature, err := api.SignParameters(params, s.cld.Config.Cloud.APISecret)
	if err != nil {
		return nil, fmt.Errorf("ошибка подписи параметров загрузки: %w", err)
	}

	return &UploadParams{
		Timestamp: timestamp,
		Folder:    s.uploadFolder,
		Signature: signature,
		APIKey:    s.cld.Config.Cloud.APIKey,
		CloudName: s.cld.Config.Cloud.CloudName,
	}, nil
}
