package store

import (
	"acutis/models"

	"github.com/rotisserie/eris"
)

func (s *Store) ActiveCompanies() ([]models.ConfigEmpresa, error) {
	var rows []models.ConfigEmpresa
	err := s.db.Where("ativo = ?", true).Order("id asc").Find(&rows).Error
	return rows, eris.Wrap(err, "listando empresas ativas")
}

func (s *Store) ListCompanies() ([]models.ConfigEmpresa, error) {
	var rows []models.ConfigEmpresa
	err := s.db.Order("nome_empresa asc").Find(&rows).Error
	return rows, eris.Wrap(err, "listando empresas")
}

func (s *Store) CompanyByOwner(owner string) (*models.ConfigEmpresa, error) {
	var row models.ConfigEmpresa
	if err := s.db.Where("owner = ?", owner).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

func (s *Store) CreateCompany(e *models.ConfigEmpresa) error {
	return eris.Wrap(s.db.Create(e).Error, "criando empresa")
}

// UpdateCompany aplica só as colunas informadas.
func (s *Store) UpdateCompany(owner string, fields map[string]any) error {
	res := s.db.Model(&models.ConfigEmpresa{}).Where("owner = ?", owner).Updates(fields)
	if res.Error != nil {
		return eris.Wrap(res.Error, "atualizando empresa")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

/************************************************
/**** MARK: GESTORES ****/
/************************************************/

func (s *Store) Gestores(owner string) ([]models.Gestor, error) {
	var rows []models.Gestor
	err := s.db.Where("owner = ?", owner).Order("nome asc").Find(&rows).Error
	return rows, eris.Wrap(err, "listando gestores")
}

// AlertRecipients são os gestores ativos que recebem alertas.
func (s *Store) AlertRecipients(owner string) ([]models.Gestor, error) {
	var rows []models.Gestor
	err := s.db.Where("owner = ? AND ativo = ? AND recebe_alertas = ?", owner, true, true).
		Order("id asc").
		Find(&rows).Error
	return rows, eris.Wrap(err, "listando destinatários de alerta")
}

func (s *Store) GestorByID(id int64) (*models.Gestor, error) {
	var row models.Gestor
	if err := s.db.First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

func (s *Store) CreateGestor(g *models.Gestor) error {
	return eris.Wrap(s.db.Create(g).Error, "criando gestor")
}

func (s *Store) UpdateGestor(id int64, fields map[string]any) error {
	res := s.db.Model(&models.Gestor{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return eris.Wrap(res.Error, "atualizando gestor")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteGestor(id int64) error {
	res := s.db.Where("id = ?", id).Delete(&models.Gestor{})
	if res.Error != nil {
		return eris.Wrap(res.Error, "removendo gestor")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

/************************************************
/**** MARK: USUARIOS ****/
/************************************************/

func (s *Store) UsuarioByEmail(email string) (*models.Usuario, error) {
	var row models.Usuario
	if err := s.db.Where("email = ?", email).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

func (s *Store) UsuarioByID(id int64) (*models.Usuario, error) {
	var row models.Usuario
	if err := s.db.First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

func (s *Store) CreateUsuario(u *models.Usuario) error {
	return eris.Wrap(s.db.Create(u).Error, "criando usuário")
}
