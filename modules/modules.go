package modules

import (
	"github.com/vialuz/sac-dashboard/modules/sac"
	"github.com/vialuz/sac-dashboard/pkg/application"
)

var BuiltInModules = []application.Module{
	sac.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range append(BuiltInModules, externalModules...) {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
