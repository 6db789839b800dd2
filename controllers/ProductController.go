package controllers

import (
	"github.com/gin-gonic/gin"

	"catalog-api/database"
	"catalog-api/helpers"
	"catalog-api/middleware"
	"catalog-api/models"
	"catalog-api/query"
	"catalog-api/validation"
)

type ProductController struct {
	products database.ProductStore
	gate     *validation.Gate
}

func NewProductController(products database.ProductStore, gate *validation.Gate) *ProductController {
	return &ProductController{products: products, gate: gate}
}

func (pc *ProductController) List(c *gin.Context) {
	q, err := query.Products.ParseList(c.Request.URL.Query())
	if err != nil {
		helpers.Fail(c, err)
		return
	}
	pc.page(c, q, "Error fetching products", nil)
}

func (pc *ProductController) Search(c *gin.Context) {
	q, err := query.Products.Parse(c.Request.URL.Query())
	if err != nil {
		helpers.Fail(c, err)
		return
	}
	pc.page(c, q, "Error searching products", func(e *helpers.Envelope) {
		e.SearchQuery = q.Echo()
	})
}

func (pc *ProductController) ListByCategory(c *gin.Context) {
	category := c.Param("category")
	q, err := query.Products.ParseList(c.Request.URL.Query())
	if err != nil {
		helpers.Fail(c, err)
		return
	}
	pc.page(c, q.WithEquals("category", category), "Error fetching products by category", func(e *helpers.Envelope) {
		e.Category = category
	})
}

func (pc *ProductController) page(c *gin.Context, q query.Query, action string, extra func(*helpers.Envelope)) {
	ctx, cancel := requestContext(c)
	defer cancel()

	products, total, err := pc.products.List(ctx, q)
	if err != nil {
		helpers.Fail(c, helpers.Internal(action, err))
		return
	}
	helpers.Page(c, products, q.Pagination(total), extra)
}

func (pc *ProductController) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := pc.products.FindByID(ctx, c.Param("id"))
	if err != nil {
		helpers.Fail(c, productResource.storeError(err, "Error fetching product"))
		return
	}
	helpers.OK(c, "", product)
}

// Create stores a product owned by the caller.
func (pc *ProductController) Create(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	patch, err := pc.gate.Product(fields, validation.Create)
	if err != nil {
		helpers.Fail(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	product, err := pc.products.Create(ctx, models.NewProduct(patch, middleware.Caller(c).ID))
	if err != nil {
		helpers.Fail(c, productResource.storeError(err, "Error creating product"))
		return
	}
	helpers.Created(c, "Product created successfully", product)
}

// Update applies a partial update. When the body carries only one of the
// two dates, ordering is checked against the stored product.
func (pc *ProductController) Update(c *gin.Context) {
	id := c.Param("id")
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	patch, err := pc.gate.Product(fields, validation.Update)
	if err != nil {
		helpers.Fail(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	if !patch.ClearDiscontinueDate && (patch.ReleaseDate == nil) != (patch.DiscontinueDate == nil) {
		stored, err := pc.products.FindByID(ctx, id)
		if err != nil {
			helpers.Fail(c, productResource.storeError(err, "Error updating product"))
			return
		}
		release, discontinue := stored.ReleaseDate, stored.DiscontinueDate
		if patch.ReleaseDate != nil {
			release = *patch.ReleaseDate
		}
		if patch.DiscontinueDate != nil {
			discontinue = patch.DiscontinueDate
		}
		if discontinue != nil {
			if f := validation.CheckProductDates(release, *discontinue); f != nil {
				helpers.Fail(c, validation.Failures{*f})
				return
			}
		}
	}

	product, err := pc.products.Update(ctx, id, patch)
	if err != nil {
		helpers.Fail(c, productResource.storeError(err, "Error updating product"))
		return
	}
	helpers.OK(c, "Product updated successfully", product)
}

func (pc *ProductController) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := pc.products.Delete(ctx, c.Param("id")); err != nil {
		helpers.Fail(c, productResource.storeError(err, "Error deleting product"))
		return
	}
	helpers.OK(c, "Product deleted successfully", nil)
}
