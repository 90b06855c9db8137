package handler

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/model"
	"docvault/internal/service"
	"docvault/internal/validate"
)

type updateDocumentBody struct {
	Name *string `json:"name"`
	// Tags is decoded loosely so element types can be reported precisely.
	Tags any `json:"tags"`
}

// CreateDocument accepts multipart/form-data with fields file, name, tags (a JSON
// array) and format. Without a name the uploaded file name minus its extension is used.
func CreateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		var tags []string
		if raw := c.FormValue("tags"); raw != "" {
			var decoded any
			if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
				return writeFailure(c, validate.ErrNotAnArray)
			}
			if tags, err = validate.StringSlice(decoded, model.MaxTagLength); err != nil {
				return writeFailure(c, err)
			}
		}

		name := c.FormValue("name")
		if name == "" {
			name = strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := svc.Create(c.UserContext(), service.CreateDocumentRequest{
			Token:       middleware.TokenFrom(c),
			Name:        name,
			Tags:        tags,
			Format:      model.Format(c.FormValue("format")),
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Body:        f,
			Size:        fh.Size,
		})
		if err != nil {
			return writeFailure(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := svc.List(c.UserContext(), middleware.TokenFrom(c))
		if err != nil {
			return writeFailure(c, err)
		}
		return c.JSON(docs)
	}
}

// SearchDocuments reads its filters from the query string; tags is comma separated.
func SearchDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var tags []string
		for _, t := range strings.Split(c.Query("tags"), ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		docs, err := svc.Search(c.UserContext(), service.SearchDocumentsRequest{
			Token:     middleware.TokenFrom(c),
			Name:      c.Query("name"),
			Tags:      tags,
			Format:    c.Query("format"),
			CreatedOn: c.Query("created_on"),
			UpdatedOn: c.Query("updated_on"),
			UpdatedBy: c.Query("updated_by"),
		})
		if err != nil {
			return writeFailure(c, err)
		}
		return c.JSON(docs)
	}
}

func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), middleware.TokenFrom(c), c.Params("id"))
		if err != nil {
			return writeFailure(c, err)
		}
		return c.JSON(doc)
	}
}

func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body updateDocumentBody
		if err := c.BodyParser(&body); err != nil {
			return invalidBody(c)
		}

		req := service.UpdateDocumentRequest{
			Token:      middleware.TokenFrom(c),
			DocumentID: c.Params("id"),
			Name:       body.Name,
		}
		if body.Tags != nil {
			tags, err := validate.StringSlice(body.Tags, model.MaxTagLength)
			if err != nil {
				return writeFailure(c, err)
			}
			req.Tags = &tags
		}

		doc, err := svc.Update(c.UserContext(), req)
		if err != nil {
			return writeFailure(c, err)
		}
		return c.JSON(doc)
	}
}

func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Download(c.UserContext(), middleware.TokenFrom(c), c.Params("id"))
		if err != nil {
			return writeFailure(c, err)
		}
		return c.JSON(res)
	}
}

func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := svc.Delete(c.UserContext(), middleware.TokenFrom(c), c.Params("id")); err != nil {
			return writeFailure(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
