package http

import (
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/inventory"
	"github.com/jhoicas/invorya-erp/internal/application/usecase"
)

// ProductHandler catálogo: productos, etiquetas, imágenes, categorías e importación.
type ProductHandler struct {
	uc       *usecase.ProductUseCase
	importer *inventory.ImportCatalogUseCase
}

func NewProductHandler(uc *usecase.ProductUseCase, importer *inventory.ImportCatalogUseCase) *ProductHandler {
	return &ProductHandler{uc: uc, importer: importer}
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.Context(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        q                 query  string  false  "Texto en SKU, nombre o código de barras"
// @Param        category_id       query  string  false  "Categoría"
// @Param        tag               query  string  false  "Etiqueta"
// @Param        include_inactive  query  bool    false  "Incluir inactivos"
// @Param        limit             query  int     false  "Límite"  default(20)
// @Param        offset            query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ProductListResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var in dto.ProductFilterRequest
	if err := parseQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.Context(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del producto"
// @Param        body  body  dto.UpdateProductRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.ProductResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateProductRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Deactivate DELETE /api/products/:id. El producto queda inactivo; su historial se conserva.
func (h *ProductHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.uc.Deactivate(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) ListTags(c *fiber.Ctx) error {
	tags, err := h.uc.ListTags(c.Context(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"tags": tags})
}

func (h *ProductHandler) AddTags(c *fiber.Ctx) error {
	var in dto.TagsRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	tags, err := h.uc.AddTags(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in.Tags)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"tags": tags})
}

func (h *ProductHandler) RemoveTag(c *fiber.Ctx) error {
	tags, err := h.uc.RemoveTag(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), c.Params("tag"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"tags": tags})
}

// AddImage godoc
// @Summary      Agregar imagen
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del producto"
// @Param        body  body  dto.AddImageRequest  true  "URL de la imagen"
// @Success      201   {object}  dto.ProductImageResponse
// @Router       /api/products/{id}/images [post]
func (h *ProductHandler) AddImage(c *fiber.Ctx) error {
	var in dto.AddImageRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.AddImage(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *ProductHandler) RemoveImage(c *fiber.Ctx) error {
	if err := h.uc.RemoveImage(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), c.Params("imageId")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetPrimaryImage PUT /api/products/:id/images/:imageId/primary
func (h *ProductHandler) SetPrimaryImage(c *fiber.Ctx) error {
	out, err := h.uc.SetPrimaryImage(c.Context(), GetCompanyID(c), c.Params("id"), c.Params("imageId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *ProductHandler) CreateCategory(c *fiber.Ctx) error {
	var in dto.CreateCategoryRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateCategory(c.Context(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *ProductHandler) ListCategories(c *fiber.Ctx) error {
	out, err := h.uc.ListCategories(c.Context(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Import godoc
// @Summary      Importar catálogo
// @Description  Carga masiva desde CSV o XLSX. Cada fila se procesa por separado; los errores se reportan por fila.
// @Tags         products
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file          formData  file    true   "Archivo .csv o .xlsx"
// @Param        format        formData  string  false  "csv | xlsx (por defecto según la extensión)"
// @Param        dry_run       formData  bool    false  "Solo validar"
// @Param        warehouse_id  formData  string  false  "Bodega para el stock inicial"
// @Success      200  {object}  dto.ImportResult
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/products/import [post]
func (h *ProductHandler) Import(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, invalidRequest("MISSING_FILE", "adjunte el archivo en el campo file"))
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, invalidRequest("INVALID_FILE", "no se pudo leer el archivo"))
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return writeError(c, invalidRequest("INVALID_FILE", "no se pudo leer el archivo"))
	}
	dryRun, _ := strconv.ParseBool(c.FormValue("dry_run"))

	out, err := h.importer.Import(c.Context(), inventory.ImportInput{
		CompanyID:   GetCompanyID(c),
		UserID:      GetUserID(c),
		Filename:    fh.Filename,
		Format:      c.FormValue("format"),
		Data:        data,
		DryRun:      dryRun,
		WarehouseID: c.FormValue("warehouse_id"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
