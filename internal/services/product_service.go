package services

import (
	"backoffice/internal/models"
	"backoffice/internal/repositories"
	"backoffice/internal/util"

	"github.com/google/uuid"
)

// ProductService handles business logic related to products, including the
// resolution of opaque product tokens used by order ingestion.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products, enriched with their derived
// warehouse ids.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	products, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	for i := range products {
		attachWarehouseID(&products[i])
	}
	return products, nil
}

// GetProductByID retrieves a single product by its canonical identity.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	attachWarehouseID(product)
	return product, nil
}

// LookupByToken resolves an opaque token of unknown provenance (canonical
// identity, internal code, SKU or alternate code) to exactly one product.
//
// Tokens that parse as a UUID are canonical identities and are looked up by
// primary key only; canonical ids are drawn from a different alphabet than
// the alternate codes, so skipping the equivalence query is safe. Any other
// token is matched against all four fields; zero matches yield a
// ResolutionError and more than one an AmbiguousTokenError.
func (s *ProductService) LookupByToken(token string) (*models.Product, error) {
	if _, err := uuid.Parse(token); err == nil {
		product, err := s.repo.GetByID(token)
		if err != nil {
			util.ProductLookupsTotal.WithLabelValues("unresolved").Inc()
			return nil, &models.ResolutionError{Token: token}
		}
		util.ProductLookupsTotal.WithLabelValues("direct").Inc()
		attachWarehouseID(product)
		return product, nil
	}

	matches, err := s.repo.FindByToken(token)
	if err != nil {
		util.ProductLookupsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	switch len(matches) {
	case 0:
		util.ProductLookupsTotal.WithLabelValues("unresolved").Inc()
		return nil, &models.ResolutionError{Token: token}
	case 1:
		util.ProductLookupsTotal.WithLabelValues("equivalence").Inc()
		product := matches[0]
		attachWarehouseID(&product)
		return &product, nil
	default:
		util.ProductLookupsTotal.WithLabelValues("ambiguous").Inc()
		return nil, &models.AmbiguousTokenError{Token: token, Matches: len(matches)}
	}
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

func attachWarehouseID(p *models.Product) {
	if id, ok := p.DeriveWarehouseID(); ok {
		p.WarehouseID = &id
	}
}
