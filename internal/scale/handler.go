package scale

import (
	"fmt"
	"strconv"

	"pamuk-backend/internal/audit"
	"pamuk-backend/internal/database"
	"pamuk-backend/internal/models"
	"pamuk-backend/internal/session"

	"github.com/gofiber/fiber/v2"
)

type CreateScaleRequest struct {
	Name       string `json:"name"`
	Department int    `json:"department"`
}

type UpdateScaleRequest struct {
	Name       *string `json:"name"`
	Department *int    `json:"department"`
	Active     *bool   `json:"active"`
}

type ScaleResponse struct {
	ID               uint                         `json:"id"`
	Name             string                       `json:"name"`
	Department       int                          `json:"department"`
	Active           bool                         `json:"active"`
	ConnectionStatus models.ScaleConnectionStatus `json:"connection_status"`
	LastHeartbeatAt  *string                      `json:"last_heartbeat_at"`
	CreatedAt        string                       `json:"created_at"`
}

func toResponse(s models.ScaleConfig) ScaleResponse {
	var hb *string
	if s.LastHeartbeatAt != nil {
		formatted := s.LastHeartbeatAt.Format("2006-01-02 15:04:05")
		hb = &formatted
	}
	return ScaleResponse{
		ID:               s.ID,
		Name:             s.Name,
		Department:       s.Department,
		Active:           s.Active,
		ConnectionStatus: s.ConnectionStatus,
		LastHeartbeatAt:  hb,
		CreatedAt:        s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/scales
func CreateScaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateScaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Kantar adı zorunlu")
		}
		if body.Department < 1 || body.Department > 3 {
			return fiber.NewError(fiber.StatusBadRequest, "Departman 1-3 arasında olmalı")
		}

		scale := models.ScaleConfig{
			Name:             body.Name,
			Department:       body.Department,
			Active:           true,
			ConnectionStatus: models.ScaleDisconnected,
		}
		if err := database.DB.Create(&scale).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kantar kaydedilemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			Department:  &scale.Department,
			Operator:    c.Get("X-Operator", "operatör"),
			EntityType:  "scale_config",
			EntityID:    scale.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Kantar tanımlandı: %s (departman %d)", scale.Name, scale.Department),
			After:       scale,
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(scale))
	}
}

// GET /api/scales?department=1
func ListScalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.ScaleConfig{})

		if depStr := c.Query("department"); depStr != "" {
			dep, err := strconv.Atoi(depStr)
			if err != nil || dep < 1 {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz departman numarası")
			}
			dbq = dbq.Where("department = ?", dep)
		}

		var scales []models.ScaleConfig
		if err := dbq.Order("department ASC, id ASC").Find(&scales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kantarlar listelenemedi")
		}

		resp := make([]ScaleResponse, 0, len(scales))
		for _, s := range scales {
			resp = append(resp, toResponse(s))
		}
		return c.JSON(resp)
	}
}

// GET /api/scales/:id
func GetScaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kantar ID")
		}

		var scale models.ScaleConfig
		if err := database.DB.First(&scale, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kantar bulunamadı")
		}
		return c.JSON(toResponse(scale))
	}
}

// PUT /api/scales/:id
func UpdateScaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kantar ID")
		}

		var body UpdateScaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		var scale models.ScaleConfig
		if err := database.DB.First(&scale, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kantar bulunamadı")
		}
		before := scale

		updates := map[string]interface{}{}
		if body.Name != nil {
			if *body.Name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Kantar adı boş olamaz")
			}
			updates["name"] = *body.Name
			scale.Name = *body.Name
		}
		if body.Department != nil {
			if *body.Department < 1 || *body.Department > 3 {
				return fiber.NewError(fiber.StatusBadRequest, "Departman 1-3 arasında olmalı")
			}
			updates["department"] = *body.Department
			scale.Department = *body.Department
		}
		if body.Active != nil {
			updates["active"] = *body.Active
			scale.Active = *body.Active
		}

		if len(updates) > 0 {
			if err := database.DB.Model(&models.ScaleConfig{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Kantar güncellenemedi")
			}
			_ = audit.WriteLog(audit.LogOptions{
				Department:  &scale.Department,
				Operator:    c.Get("X-Operator", "operatör"),
				EntityType:  "scale_config",
				EntityID:    scale.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Kantar güncellendi: %s", scale.Name),
				Before:      before,
				After:       scale,
			})
		}

		return c.JSON(toResponse(scale))
	}
}

// POST /api/scales/sweep - manuel bağlantı kontrolü tetikleyicisi
func SweepHandler(sweeper *session.Sweeper) fiber.Handler {
	return func(c *fiber.Ctx) error {
		demoted, err := sweeper.SweepOnce(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bağlantı taraması başarısız")
		}
		return c.JSON(fiber.Map{"demoted": demoted})
	}
}
