package plan

// DefaultTiers is the load order of the Upysusa schema. Tables of a tier may
// reference tables of earlier tiers through foreign keys.
var DefaultTiers = [][]string{
	{"SUCURSALES", "PROVEEDORES", "CATALOGO_GASTOS", "TURNO", "ESTATUS", "PUESTO"},
	{"PRODUCTOS", "COMPRAS", "GASTOS", "CAJAS", "EMPLEADOS"},
	{"COMPRA_POR_PRODUCTO", "ALMACEN_POR_SUCURSAL", "TICKETS"},
	{"TICKETS_DETALLE"},
}

// Default returns the plan built from DefaultTiers.
func Default() *Plan {
	p, err := FromTiers(DefaultTiers)
	if err != nil {
		panic("plan: invalid default tiers: " + err.Error())
	}
	return p
}
