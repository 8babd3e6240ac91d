package batch

import (
	"errors"
	"fmt"
	"strconv"

	"pamuk-backend/internal/database"
	"pamuk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateBatchRequest struct {
	Category models.BatchCategory `json:"category"`
	SubZone  string               `json:"sub_zone"`
	Number   *int                 `json:"number"`   // opsiyonel: elle numara
	Capacity int                  `json:"capacity"` // 0 ise varsayılan (220)
}

type BatchResponse struct {
	ID         uint                 `json:"id"`
	Number     int                  `json:"number"`
	Department int                  `json:"department"`
	Category   models.BatchCategory `json:"category"`
	SubZone    string               `json:"sub_zone,omitempty"`
	Capacity   int                  `json:"capacity"`
	Used       int                  `json:"used"`
	Status     models.BatchStatus   `json:"status"`
	CreatedAt  string               `json:"created_at"`
}

func toResponse(b models.Batch) BatchResponse {
	return BatchResponse{
		ID:         b.ID,
		Number:     b.Number,
		Department: b.Department,
		Category:   b.Category,
		SubZone:    b.SubZone,
		Capacity:   b.Capacity,
		Used:       b.Used,
		Status:     b.Status,
		CreatedAt:  b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// Parti hatalarını HTTP durumuna çevirir; numara çakışması ile aralık
// tükenmesi bilerek ayrı mesajlarla döner (biri tekrar denenebilir, diğeri
// yeni kapsam gerektirir).
func mapBatchError(err error) error {
	switch {
	case errors.Is(err, ErrSubZoneRequired):
		return fiber.NewError(fiber.StatusBadRequest, "Lint partileri için alt bölge (A/B) zorunlu")
	case errors.Is(err, ErrSubZoneForbidden):
		return fiber.NewError(fiber.StatusBadRequest, "Alt bölge yalnızca lint partileri için geçerli")
	case errors.Is(err, ErrUnknownCategory), errors.Is(err, ErrUnknownSubZone):
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kategori/alt bölge")
	case errors.Is(err, ErrInvalidCapacity):
		return fiber.NewError(fiber.StatusBadRequest, "Kapasite en az 1 olmalı")
	case errors.Is(err, ErrNumberOutOfRange):
		return fiber.NewError(fiber.StatusBadRequest, "Numara bu kapsamın aralığının dışında")
	case errors.Is(err, ErrNumberTaken):
		return fiber.NewError(fiber.StatusConflict, "Bu numara aynı departmanda başka bir partiye ait")
	case errors.Is(err, ErrRangeExhausted):
		return fiber.NewError(fiber.StatusConflict, "Numara aralığı tükendi, bu kapsamda yeni parti açılamaz")
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Parti bulunamadı")
	case errors.Is(err, ErrInvalidStatus):
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz parti durumu geçişi")
	default:
		return err
	}
}

// POST /api/batches
func CreateBatchHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBatchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		created, err := svc.Create(c.Context(), CreateInput{
			Category: body.Category,
			SubZone:  body.SubZone,
			Number:   body.Number,
			Capacity: body.Capacity,
			Operator: c.Get("X-Operator", "operatör"),
		})
		if err != nil {
			return mapBatchError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(*created))
	}
}

// GET /api/batches?department=1&status=active
func ListBatchesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Batch{})

		if depStr := c.Query("department"); depStr != "" {
			dep, err := strconv.Atoi(depStr)
			if err != nil || dep < 1 {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz departman numarası")
			}
			dbq = dbq.Where("department = ?", dep)
		}
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var batches []models.Batch
		if err := dbq.Order("department ASC, number ASC").Find(&batches).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Partiler listelenemedi")
		}

		resp := make([]BatchResponse, 0, len(batches))
		for _, b := range batches {
			resp = append(resp, toResponse(b))
		}
		return c.JSON(resp)
	}
}

// GET /api/batches/:id
func GetBatchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz parti ID")
		}

		var b models.Batch
		if err := database.DB.First(&b, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Parti bulunamadı")
		}
		return c.JSON(toResponse(b))
	}
}

// GET /api/batches/next-number?category=lint&sub_zone=A
func NextNumberHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		category := models.BatchCategory(c.Query("category"))
		subZone := c.Query("sub_zone")

		next, r, err := svc.NextNumber(c.Context(), category, subZone)
		if err != nil {
			return mapBatchError(err)
		}

		return c.JSON(fiber.Map{
			"next_number": next,
			"department":  r.Department,
			"floor":       r.Floor,
			"ceiling":     r.Ceiling, // 0 = sınırsız
		})
	}
}

type UpdateBatchStatusRequest struct {
	Status models.BatchStatus `json:"status"`
}

// PUT /api/batches/:id/status
func UpdateBatchStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz parti ID")
		}

		var body UpdateBatchStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		updated, err := svc.SetStatus(c.Context(), id, body.Status, c.Get("X-Operator", "operatör"))
		if err != nil {
			return mapBatchError(err)
		}
		return c.JSON(toResponse(*updated))
	}
}
