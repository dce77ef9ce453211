package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tgienger/taskly/internal/models"
	"github.com/tgienger/taskly/internal/tasks"
)

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Email and password are required")
	}

	u, err := s.accounts.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: &u.CreatedAt,
	})
}

func (s *Server) login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Email and password are required")
	}

	id, err := s.accounts.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(TokenResponse{
		AccessToken: id.Token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accounts.TokenTTL().Seconds()),
		User:        UserResponse{ID: id.UserID, Email: id.Email},
	})
}

func (s *Server) me(c *fiber.Ctx) error {
	id, ok := identity(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	return c.JSON(UserResponse{ID: id.UserID, Email: id.Email})
}

func (s *Server) listTasks(c *fiber.Ctx) error {
	id, ok := identity(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	list, err := s.tasks.ListTasks(c.UserContext(), id.UserID)
	if err != nil {
		return err
	}
	if list == nil {
		list = []models.Task{}
	}

	return c.JSON(TaskListResponse{Count: len(list), Items: list})
}

func (s *Server) createTask(c *fiber.Ctx) error {
	id, ok := identity(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	desc, err := tasks.ValidateDescription(req.Description)
	if err != nil {
		return err
	}

	task, err := s.tasks.CreateTask(c.UserContext(), id.UserID, desc)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (s *Server) updateTask(c *fiber.Ctx) error {
	id, ok := identity(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	taskID := c.Params("id")
	switch {
	case req.Status != nil && req.Description == nil:
		if !req.Status.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "Status must be pending or completed")
		}
		err := s.tasks.UpdateTaskStatus(c.UserContext(), id.UserID, taskID, *req.Status)
		if err != nil {
			return err
		}
	case req.Description != nil && req.Status == nil:
		desc, err := tasks.ValidateDescription(*req.Description)
		if err != nil {
			return err
		}
		err = s.tasks.UpdateTaskDescription(c.UserContext(), id.UserID, taskID, desc)
		if err != nil {
			return err
		}
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Exactly one of status or description is required")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) deleteTask(c *fiber.Ctx) error {
	id, ok := identity(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	if err := s.tasks.DeleteTask(c.UserContext(), id.UserID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
