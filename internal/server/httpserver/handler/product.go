package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/core/service"
)

// multipartMemory is the part of a multipart form kept in memory; larger
// files spill to temporary files.
const multipartMemory = 8 << 20

// ProductGroup serves /api/product.
type ProductGroup struct {
	*Router
	products  *service.ProductService
	maxUpload int64
}

// NewProductGroup creates the product route group. maxUpload bounds a
// whole multipart request.
func NewProductGroup(products *service.ProductService, maxUpload int64) *ProductGroup {
	g := &ProductGroup{Router: NewRouter(), products: products, maxUpload: maxUpload}
	g.Handle("GET /list", g.list)
	g.Handle("POST /single", g.single)
	g.Handle("POST /add", g.add)
	g.Handle("POST /remove", g.remove)
	g.Handle("GET /{id}", g.get)
	return g
}

// list handles GET /list.
func (g *ProductGroup) list(w http.ResponseWriter, r *http.Request) error {
	products, err := g.products.List(r.Context())
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusOK, products)
	return nil
}

// get handles GET /{id}.
func (g *ProductGroup) get(w http.ResponseWriter, r *http.Request) error {
	p, err := g.products.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusOK, p)
	return nil
}

// single handles POST /single.
func (g *ProductGroup) single(w http.ResponseWriter, r *http.Request) error {
	var req IDRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	p, err := g.products.Get(r.Context(), req.ID)
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusOK, p)
	return nil
}

// remove handles POST /remove.
func (g *ProductGroup) remove(w http.ResponseWriter, r *http.Request) error {
	var req IDRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if err := g.products.Remove(r.Context(), req.ID); err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusOK, IDRequest{ID: req.ID})
	return nil
}

// add handles POST /add with either a JSON body or a multipart form
// carrying image1..image4.
func (g *ProductGroup) add(w http.ResponseWriter, r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return g.addMultipart(w, r)
	}

	var req AddProductRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	p, err := g.products.Add(r.Context(), &service.AddProductRequest{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Sizes:       req.Sizes,
		Bestseller:  req.Bestseller,
		ImageURLs:   req.Images,
	})
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusCreated, p)
	return nil
}

func (g *ProductGroup) addMultipart(w http.ResponseWriter, r *http.Request) error {
	if g.maxUpload > 0 {
		if r.ContentLength > g.maxUpload {
			return domain.ErrPayloadTooLarge
		}
		r.Body = http.MaxBytesReader(w, r.Body, g.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.ErrPayloadTooLarge
		}
		return domain.ErrBadRequest.WithDetails("invalid multipart form")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := r.MultipartForm
	req := &service.AddProductRequest{
		Name:        formValue(form, "name"),
		Description: formValue(form, "description"),
		Category:    formValue(form, "category"),
		SubCategory: formValue(form, "subCategory"),
	}

	if s := formValue(form, "price"); s != "" {
		price, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return domain.ErrProductValidation.WithDetails("price must be an integer")
		}
		req.Price = price
	}
	if s := formValue(form, "bestseller"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return domain.ErrProductValidation.WithDetails("bestseller must be a boolean")
		}
		req.Bestseller = b
	}
	sizes, err := parseSizes(formValue(form, "sizes"))
	if err != nil {
		return err
	}
	req.Sizes = sizes

	for i := 1; i <= service.MaxProductImages; i++ {
		files := form.File[fmt.Sprintf("image%d", i)]
		if len(files) == 0 {
			continue
		}
		f, err := files[0].Open()
		if err != nil {
			return domain.ErrBadRequest.WithCause(err)
		}
		defer f.Close()
		req.Uploads = append(req.Uploads, f)
	}

	p, err := g.products.Add(r.Context(), req)
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusCreated, p)
	return nil
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

// parseSizes accepts a JSON array (["S","M"]) or a comma separated list.
func parseSizes(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "[") {
		var sizes []string
		if err := json.Unmarshal([]byte(s), &sizes); err != nil {
			return nil, domain.ErrProductValidation.WithDetails("sizes must be a JSON array of strings")
		}
		return sizes, nil
	}
	return strings.Split(s, ","), nil
}
