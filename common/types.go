package common

type DeployParams struct {
	FunctionName         string
	ProjectID            string
	Region               string
	Runtime              string
	SourceDir            string
	EntryPoint           string
	Memory               string
	Timeout              string
	EnvironmentVariables map[string]string
	SecretVariables      map[string]string
	AllowUnauthenticated bool
}
