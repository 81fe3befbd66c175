package storage

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Static("/", svc.Root(), fiber.Static{Browse: false})
}
