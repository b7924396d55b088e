package build

import "fmt"

// mangleStaticName implements original_source/build.c's
// mangle_static_name: a block-scope `static` variable becomes
// ".funcname.name" so that two functions' same-named statics don't
// collide as globals. counter disambiguates the same name declared in
// two different nested blocks of the same function — a case the typed
// tree's Var.Identifier is expected to already have alpha-renamed away,
// but the counter is kept as a second line of defence.
func mangleStaticName(funcName, name string, counter int) string {
	if counter == 0 {
		return fmt.Sprintf(".%s.%s", funcName, name)
	}
	return fmt.Sprintf(".%s.%s.%d", funcName, name, counter)
}
