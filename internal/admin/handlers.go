// Package admin exposes staff-only maintenance routes: group management,
// removal of posts and accounts, and dropping the page cache.
package admin

import (
	"context"
	"errors"
	"strconv"

	"backend-yatube/internal/auth"
	"backend-yatube/internal/cache"
	"backend-yatube/internal/posts"

	"github.com/gofiber/fiber/v2"
)

type UserDeleter interface {
	DeleteUser(ctx context.Context, username string) error
}

func RegisterRoutes(r fiber.Router, svc *posts.Service, users UserDeleter, pageCache cache.Cache) {
	r.Use(auth.RequireStaff())

	r.Get("/groups", func(c *fiber.Ctx) error {
		groups, err := svc.Groups(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(groups)
	})

	r.Post("/groups", func(c *fiber.Ctx) error {
		var form posts.GroupForm
		_ = c.BodyParser(&form)
		g, errs := posts.ValidateGroupForm(form)
		if errs != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"form": form, "errors": errs})
		}
		g, err := svc.CreateGroup(c.Context(), g)
		if errors.Is(err, posts.ErrSlugTaken) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"form":   form,
				"errors": posts.FieldErrors{"slug": {err.Error()}},
			})
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(g)
	})

	r.Put("/groups/:id", func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var form posts.GroupForm
		_ = c.BodyParser(&form)
		g, errs := posts.ValidateGroupForm(form)
		if errs != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"form": form, "errors": errs})
		}
		g.ID = id
		if err := svc.UpdateGroup(c.Context(), g); err != nil {
			return writeError(err)
		}
		return c.JSON(g)
	})

	r.Delete("/groups/:id", func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		if err := svc.DeleteGroup(c.Context(), id); err != nil {
			return writeError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Delete("/posts/:id", func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		if err := svc.DeletePost(c.Context(), id); err != nil {
			return writeError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Delete("/users/:username", func(c *fiber.Ctx) error {
		err := users.DeleteUser(c.Context(), c.Params("username"))
		if errors.Is(err, auth.ErrUserNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/cache/clear", func(c *fiber.Ctx) error {
		if err := pageCache.Clear(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"status": "cleared"})
	})
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusNotFound, "not found")
	}
	return id, nil
}

func writeError(err error) error {
	switch {
	case errors.Is(err, posts.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, posts.ErrSlugTaken):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
