package rest

import (
	domainPreference "github.com/ganga90/olive-couple-sync-sub002/domains/preference"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/utils"
	"github.com/ganga90/olive-couple-sync-sub002/validations"
	"github.com/gofiber/fiber/v2"
)

type Preference struct {
	Repository domainPreference.IPreferenceRepository
}

func InitRestPreference(app fiber.Router, repository domainPreference.IPreferenceRepository) Preference {
	rest := Preference{Repository: repository}
	app.Get("/preferences/:user_id", rest.Get)
	app.Put("/preferences/:user_id", rest.Put)
	return rest
}

func (controller *Preference) Get(c *fiber.Ctx) error {
	userID := c.Params("user_id")

	pref, err := controller.Repository.GetByUser(c.UserContext(), userID)
	if err == domainPreference.ErrPreferenceNotFound {
		// Unsaved users still have effective settings; return them so the
		// settings surface can render defaults.
		def := domainPreference.Default(userID)
		pref = &def
		err = nil
	}
	utils.PanicIfNeeded(err)

	return success(c, "Success fetch preferences", pref)
}

// Put upserts the whole row. Partial updates are deliberate non-support: the
// settings surface always submits the complete form.
func (controller *Preference) Put(c *fiber.Ctx) error {
	var pref domainPreference.Preference
	err := c.BodyParser(&pref)
	utils.PanicIfNeeded(err)

	pref.UserID = c.Params("user_id")
	err = validations.ValidatePreference(c.UserContext(), pref)
	utils.PanicIfNeeded(err)

	err = controller.Repository.Upsert(c.UserContext(), &pref)
	utils.PanicIfNeeded(err)

	return success(c, "Preferences saved", pref)
}
