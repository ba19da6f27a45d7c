package workers

import (
	"time"

	"acutis/models"
	"acutis/store"

	"github.com/patrickmn/go-cache"
)

// CompanyCache segura a config_empresas por alguns segundos; o worker consulta
// a mesma empresa a cada linha da fila.
type CompanyCache struct {
	store *store.Store
	cache *cache.Cache
}

func NewCompanyCache(st *store.Store, ttl time.Duration) *CompanyCache {
	return &CompanyCache{store: st, cache: cache.New(ttl, 2*ttl)}
}

// Get devolve store.ErrNotFound para owner inexistente; não-encontrados não ficam em cache.
func (c *CompanyCache) Get(owner string) (*models.ConfigEmpresa, error) {
	if v, ok := c.cache.Get(owner); ok {
		e := v.(models.ConfigEmpresa)
		return &e, nil
	}
	e, err := c.store.CompanyByOwner(owner)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(owner, *e)
	return e, nil
}

func (c *CompanyCache) Invalidate(owner string) {
	c.cache.Delete(owner)
}
