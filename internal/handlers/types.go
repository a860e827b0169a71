package handlers

// CheckRequest is the request for evaluating an ad-hoc window.
type CheckRequest struct {
	Key       string `default:"AK" doc:"The window key"                       example:"user-42" query:"key"`
	Window    int64  `default:"5"  doc:"Window length in seconds"             example:"5"       query:"window"`
	Threshold int64  `default:"3"  doc:"Events allowed inside the window"     example:"3"       query:"threshold"`
}

// CheckAndCleanRequest is the request for evaluating a window that resets
// once it goes over the limit.
type CheckAndCleanRequest struct {
	Key       string `default:"key" doc:"The window key"                   example:"user-42" query:"key"`
	Window    int64  `default:"3"   doc:"Window length in seconds"         example:"3"       query:"window"`
	Threshold int64  `default:"3"   doc:"Events allowed inside the window" example:"3"       query:"threshold"`
}

// CheckResponse reports an ad-hoc window decision.
type CheckResponse struct {
	Body struct {
		Key       string `doc:"The window key"                   example:"user-42"          json:"key"`
		Window    int64  `doc:"Window length in seconds"         example:"5"                json:"window"`
		Threshold int64  `doc:"Events allowed inside the window" example:"3"                json:"threshold"`
		OverLimit bool   `doc:"Whether the key is over the limit" example:"false"           json:"overLimit"`
		Message   string `doc:"Human readable decision"          example:"request accepted" json:"message"`
	}
}

// CountRequest is the request for counting the events of an ad-hoc window.
type CountRequest struct {
	Key    string `doc:"The window key"           example:"user-42" query:"key" required:"true"`
	Window int64  `default:"3" doc:"Window length in seconds" example:"3" query:"window"`
}

// CountResponse reports the events inside an ad-hoc window.
type CountResponse struct {
	Body struct {
		Key    string `doc:"The window key"                           example:"user-42" json:"key"`
		Window int64  `doc:"Window length in seconds"                 example:"3"       json:"window"`
		Count  int64  `doc:"Events in the window, this one included" example:"1"       json:"count"`
	}
}

// SceneRequest addresses a key inside a configured scene. An empty key
// stands for the calling client.
type SceneRequest struct {
	Scene string `doc:"The scene name" example:"login"   path:"scene"`
	Key   string `doc:"The window key" example:"user-42" query:"key"`
}

// SceneCheckResponse reports a scene decision.
type SceneCheckResponse struct {
	Body struct {
		Scene     string `doc:"The scene name"                    example:"login"            json:"scene"`
		Key       string `doc:"The window key"                    example:"user-42"          json:"key"`
		OverLimit bool   `doc:"Whether the key is over the limit" example:"false"            json:"overLimit"`
		Message   string `doc:"Human readable decision"           example:"request accepted" json:"message"`
	}
}

// SceneCountResponse reports the events of a key inside a scene.
type SceneCountResponse struct {
	Body struct {
		Scene string `doc:"The scene name"                           example:"login"   json:"scene"`
		Key   string `doc:"The window key"                           example:"user-42" json:"key"`
		Count int64  `doc:"Events in the window, this one included" example:"1"       json:"count"`
	}
}
