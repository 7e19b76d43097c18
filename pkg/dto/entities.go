package dto

// PluginData is a named unit of gateway behavior.
type PluginData struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Config  string `json:"config,omitempty" yaml:"config,omitempty"`
	Role    string `json:"role,omitempty" yaml:"role,omitempty"`
	Sort    int    `json:"sort" yaml:"sort"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// SelectorData narrows which requests a plugin considers.
type SelectorData struct {
	ID         string          `json:"id" yaml:"id"`
	PluginID   string          `json:"pluginId,omitempty" yaml:"plugin_id,omitempty"`
	PluginName string          `json:"pluginName" yaml:"plugin_name"`
	Name       string          `json:"name" yaml:"name"`
	MatchMode  MatchMode       `json:"matchMode" yaml:"match_mode"`
	Type       SelectorType    `json:"type" yaml:"type"`
	Sort       int             `json:"sort" yaml:"sort"`
	Enabled    bool            `json:"enabled" yaml:"enabled"`
	Logged     bool            `json:"logged,omitempty" yaml:"logged,omitempty"`
	Continued  bool            `json:"continued" yaml:"continued"`
	Handle     string          `json:"handle,omitempty" yaml:"handle,omitempty"`
	Conditions []ConditionData `json:"conditionList,omitempty" yaml:"conditions,omitempty"`
}

// RuleData is a condition-guarded leaf under a selector. Handle carries the
// plugin specific configuration applied when the rule matches.
type RuleData struct {
	ID         string          `json:"id" yaml:"id"`
	Name       string          `json:"name" yaml:"name"`
	PluginName string          `json:"pluginName,omitempty" yaml:"plugin_name,omitempty"`
	SelectorID string          `json:"selectorId" yaml:"selector_id"`
	MatchMode  MatchMode       `json:"matchMode" yaml:"match_mode"`
	Sort       int             `json:"sort" yaml:"sort"`
	Enabled    bool            `json:"enabled" yaml:"enabled"`
	Loged      bool            `json:"loged,omitempty" yaml:"loged,omitempty"`
	Handle     string          `json:"handle,omitempty" yaml:"handle,omitempty"`
	Conditions []ConditionData `json:"conditionDataList,omitempty" yaml:"conditions,omitempty"`
}

// ConditionData is one comparison between a request parameter and an
// expected value.
type ConditionData struct {
	ParamType  ParamType `json:"paramType" yaml:"param_type"`
	Operator   Operator  `json:"operator" yaml:"operator"`
	ParamName  string    `json:"paramName,omitempty" yaml:"param_name,omitempty"`
	ParamValue string    `json:"paramValue" yaml:"param_value"`
}

// AppAuthData holds the credentials of one calling application.
type AppAuthData struct {
	AppKey    string          `json:"appKey" yaml:"app_key"`
	AppSecret string          `json:"appSecret" yaml:"app_secret"`
	Enabled   bool            `json:"enabled" yaml:"enabled"`
	Params    []AuthParamData `json:"paramDataList,omitempty" yaml:"params,omitempty"`
	Paths     []AuthPathData  `json:"pathDataList,omitempty" yaml:"paths,omitempty"`
}

// AuthParamData binds an application name to an extra signing parameter.
type AuthParamData struct {
	AppName  string `json:"appName" yaml:"app_name"`
	AppParam string `json:"appParam" yaml:"app_param"`
}

// AuthPathData grants an application access to a path.
type AuthPathData struct {
	AppName string `json:"appName" yaml:"app_name"`
	Path    string `json:"path" yaml:"path"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// MetaData describes an RPC endpoint exposed through the gateway.
type MetaData struct {
	ID             string `json:"id" yaml:"id"`
	AppName        string `json:"appName" yaml:"app_name"`
	ContextPath    string `json:"contextPath,omitempty" yaml:"context_path,omitempty"`
	Path           string `json:"path" yaml:"path"`
	RPCType        string `json:"rpcType" yaml:"rpc_type"`
	ServiceName    string `json:"serviceName,omitempty" yaml:"service_name,omitempty"`
	MethodName     string `json:"methodName,omitempty" yaml:"method_name,omitempty"`
	ParameterTypes string `json:"parameterTypes,omitempty" yaml:"parameter_types,omitempty"`
	RPCExt         string `json:"rpcExt,omitempty" yaml:"rpc_ext,omitempty"`
	Enabled        bool   `json:"enabled" yaml:"enabled"`
}
