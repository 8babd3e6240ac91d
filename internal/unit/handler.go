package unit

import (
	"errors"
	"fmt"

	"pamuk-backend/internal/database"
	"pamuk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateUnitRequest struct {
	SequenceNo *int    `json:"sequence_no"` // opsiyonel: elle numara
	GrossKg    float64 `json:"gross_kg"`
	TareKg     float64 `json:"tare_kg"`
}

type UnitResponse struct {
	ID         uint    `json:"id"`
	BatchID    uint    `json:"batch_id"`
	SequenceNo int     `json:"sequence_no"`
	GrossKg    float64 `json:"gross_kg"`
	TareKg     float64 `json:"tare_kg"`
	NetKg      float64 `json:"net_kg"`
	CreatedAt  string  `json:"created_at"`
}

func toResponse(u models.Unit) UnitResponse {
	return UnitResponse{
		ID:         u.ID,
		BatchID:    u.BatchID,
		SequenceNo: u.SequenceNo,
		GrossKg:    u.GrossKg,
		TareKg:     u.TareKg,
		NetKg:      u.NetKg,
		CreatedAt:  u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// Çağıran iki durumu net ayırt edebilmeli: "numarayı başkası kaptı, tekrar
// dene" (409, retryable) ile "parti doldu, yeni parti aç" (409, terminal).
func mapUnitError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidWeights):
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ağırlık: brüt ve dara negatif olamaz, brüt >= dara olmalı")
	case errors.Is(err, ErrInvalidSequence):
		return fiber.NewError(fiber.StatusBadRequest, "Sıra numarası 1'den küçük olamaz")
	case errors.Is(err, ErrBatchNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Parti bulunamadı")
	case errors.Is(err, ErrBatchNotActive):
		return fiber.NewError(fiber.StatusConflict, "Parti aktif değil, toy kaydedilemez")
	case errors.Is(err, ErrBatchFull):
		return fiber.NewError(fiber.StatusConflict, "Parti dolu, yeni parti açılmalı")
	case errors.Is(err, ErrSequenceTaken):
		return fiber.NewError(fiber.StatusConflict, "Bu sıra numarası az önce alındı, tekrar deneyin")
	case errors.Is(err, ErrUnitNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Toy bulunamadı")
	case errors.Is(err, ErrUnitReferenced):
		return fiber.NewError(fiber.StatusConflict, "Toy kalıcı okumalarda referanslı, silinemez")
	default:
		return err
	}
}

// POST /api/batches/:id/units
func CreateUnitHandler(alloc *Allocator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var batchID uint
		if _, err := fmt.Sscan(c.Params("id"), &batchID); err != nil || batchID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz parti ID")
		}

		var body CreateUnitRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		created, err := alloc.Create(c.Context(), CreateInput{
			BatchID:    batchID,
			SequenceNo: body.SequenceNo,
			GrossKg:    body.GrossKg,
			TareKg:     body.TareKg,
			Operator:   c.Get("X-Operator", "operatör"),
		})
		if err != nil {
			return mapUnitError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(*created))
	}
}

// GET /api/batches/:id/units
func ListUnitsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var batchID uint
		if _, err := fmt.Sscan(c.Params("id"), &batchID); err != nil || batchID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz parti ID")
		}

		var units []models.Unit
		if err := database.DB.
			Where("batch_id = ?", batchID).
			Order("sequence_no ASC").
			Find(&units).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Toylar listelenemedi")
		}

		resp := make([]UnitResponse, 0, len(units))
		for _, u := range units {
			resp = append(resp, toResponse(u))
		}
		return c.JSON(resp)
	}
}

// DELETE /api/units/:id
func DeleteUnitHandler(alloc *Allocator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz toy ID")
		}

		if err := alloc.Delete(c.Context(), id, c.Get("X-Operator", "operatör")); err != nil {
			return mapUnitError(err)
		}
		return c.JSON(fiber.Map{"message": "Toy silindi"})
	}
}
