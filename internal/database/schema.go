package database

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    profile_picture_url TEXT,
    auth_provider TEXT NOT NULL,
    external_id TEXT,
    password_hash TEXT,
    subscription_tier TEXT NOT NULL DEFAULT 'free',
    free_enhancements_remaining INT NOT NULL DEFAULT 2 CHECK (free_enhancements_remaining >= 0),
    enhancement_credits INT NOT NULL DEFAULT 0 CHECK (enhancement_credits >= 0),
    subscription_expires_at TIMESTAMPTZ,
    google_photos_connected BOOLEAN NOT NULL DEFAULT FALSE,
    onedrive_connected BOOLEAN NOT NULL DEFAULT FALSE,
    auto_sync_enabled BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (auth_provider, external_id)
);

CREATE TABLE IF NOT EXISTS photos (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    original_file_name TEXT NOT NULL,
    blob_url TEXT NOT NULL,
    thumbnail_url TEXT,
    file_size BIGINT NOT NULL DEFAULT 0,
    content_type TEXT NOT NULL DEFAULT '',
    width INT NOT NULL DEFAULT 0,
    height INT NOT NULL DEFAULT 0,
    date_taken TIMESTAMPTZ,
    location TEXT,
    description TEXT,
    tags TEXT,
    is_black_and_white BOOLEAN NOT NULL DEFAULT FALSE,
    source TEXT NOT NULL DEFAULT 'upload',
    external_id TEXT,
    is_enhanced BOOLEAN NOT NULL DEFAULT FALSE,
    original_photo_id UUID REFERENCES photos(id),
    enhancement_kind TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_photos_user_taken ON photos (user_id, COALESCE(date_taken, created_at) DESC);

CREATE TABLE IF NOT EXISTS videos (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    original_file_name TEXT NOT NULL,
    blob_url TEXT NOT NULL,
    thumbnail_url TEXT,
    file_size BIGINT NOT NULL DEFAULT 0,
    content_type TEXT NOT NULL DEFAULT '',
    width INT NOT NULL DEFAULT 0,
    height INT NOT NULL DEFAULT 0,
    duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
    date_taken TIMESTAMPTZ,
    description TEXT,
    source TEXT NOT NULL DEFAULT 'upload',
    is_generated BOOLEAN NOT NULL DEFAULT FALSE,
    source_photo_id UUID REFERENCES photos(id),
    generation_kind TEXT,
    is_enhanced BOOLEAN NOT NULL DEFAULT FALSE,
    original_video_id UUID REFERENCES videos(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS albums (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    name TEXT NOT NULL,
    description TEXT,
    cover_photo_url TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS album_photos (
    album_id UUID NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
    photo_id UUID NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
    sort_order INT NOT NULL DEFAULT 0,
    added_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (album_id, photo_id)
);

CREATE TABLE IF NOT EXISTS person_tags (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    photo_id UUID NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
    person_name TEXT NOT NULL,
    face_x REAL,
    face_y REAL,
    face_width REAL,
    face_height REAL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_person_tags_name ON person_tags (user_id, person_name);

CREATE TABLE IF NOT EXISTS enhancement_jobs (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    job_type TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    credits_used INT NOT NULL CHECK (credits_used > 0),
    source_photo_id UUID REFERENCES photos(id),
    source_video_id UUID REFERENCES videos(id),
    additional_photo_ids UUID[],
    params JSONB,
    result_photo_id UUID REFERENCES photos(id),
    result_video_id UUID REFERENCES videos(id),
    error_message TEXT,
    progress_percent INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    started_at TIMESTAMPTZ,
    completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_jobs_user_created ON enhancement_jobs (user_id, created_at DESC);
`
