package executor

import "fmt"

func errStepNotFound(id string) error {
	return fmt.Errorf("executor: step %q does not exist", id)
}

func errUnknownStepKind(id string) error {
	return fmt.Errorf("executor: step %q has an unrecognized kind", id)
}
