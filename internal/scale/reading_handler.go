package scale

import (
	"fmt"
	"strconv"

	"pamuk-backend/internal/database"
	"pamuk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateReadingRequest struct {
	ScaleID  uint    `json:"scale_id"`
	WeightKg float64 `json:"weight_kg"`
	BatchID  *uint   `json:"batch_id"`
	UnitID   *uint   `json:"unit_id"`
}

type ReadingResponse struct {
	ID        uint    `json:"id"`
	ScaleID   uint    `json:"scale_id"`
	WeightKg  float64 `json:"weight_kg"`
	Stable    bool    `json:"stable"`
	Source    models.ReadingSource `json:"source"`
	BatchID   *uint   `json:"batch_id,omitempty"`
	UnitID    *uint   `json:"unit_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func toReadingResponse(r models.Reading) ReadingResponse {
	return ReadingResponse{
		ID:        r.ID,
		ScaleID:   r.ScaleID,
		WeightKg:  r.WeightKg,
		Stable:    r.Stable,
		Source:    r.Source,
		BatchID:   r.BatchID,
		UnitID:    r.UnitID,
		CreatedAt: r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/readings - kanalı atlayan elle/çevrimdışı giriş; her zaman
// stabil kabul edilir ve senkron kalıcıdır.
func CreateReadingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateReadingRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.ScaleID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "scale_id zorunlu")
		}
		if body.WeightKg < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Ağırlık negatif olamaz")
		}

		var scaleCfg models.ScaleConfig
		if err := database.DB.First(&scaleCfg, "id = ?", body.ScaleID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Kantar bulunamadı")
		}

		reading := models.Reading{
			ScaleID:    body.ScaleID,
			Department: scaleCfg.Department,
			BatchID:    body.BatchID,
			UnitID:     body.UnitID,
			WeightKg:   body.WeightKg,
			Stable:     true,
			Source:     models.ReadingSourceManual,
		}
		if err := database.DB.Create(&reading).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Okuma kaydedilemedi")
		}

		return c.Status(fiber.StatusCreated).JSON(toReadingResponse(reading))
	}
}

// GET /api/scales/:id/readings?limit=50
func ListReadingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kantar ID")
		}

		limit := 50
		if limitStr := c.Query("limit"); limitStr != "" {
			if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 500 {
				limit = n
			}
		}

		var readings []models.Reading
		if err := database.DB.
			Where("scale_id = ?", id).
			Order("created_at DESC").
			Limit(limit).
			Find(&readings).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Okumalar listelenemedi")
		}

		resp := make([]ReadingResponse, 0, len(readings))
		for _, r := range readings {
			resp = append(resp, toReadingResponse(r))
		}
		return c.JSON(resp)
	}
}

// GET /api/scales/:id/readings/latest
func LatestReadingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kantar ID")
		}

		var reading models.Reading
		if err := database.DB.
			Where("scale_id = ?", id).
			Order("created_at DESC").
			First(&reading).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kayıtlı okuma yok")
		}
		return c.JSON(toReadingResponse(reading))
	}
}
